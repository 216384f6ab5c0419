package record

// Record is one formatted, enrichment-complete log event. Meta describes
// where and when the event happened, Fields carry the event payload.
// A Record is immutable once produced: it is owned by the pipeline until
// delivered or dropped, then discarded.
type Record struct {
	Meta   map[string]any `json:"meta"`
	Fields map[string]any `json:"fields"`
}

// IsZero reports whether r carries no data at all. Degraded logging paths
// return zero Records instead of raising.
func (r Record) IsZero() bool {
	return r.Meta == nil && r.Fields == nil
}

// Scrub returns a copy of r with nil-valued keys removed recursively from
// both maps. Falsy but non-nil values (0, "", false) are kept. Scrubbing is
// idempotent.
func (r Record) Scrub() Record {
	return Record{
		Meta:   scrubMap(r.Meta),
		Fields: scrubMap(r.Fields),
	}
}

func scrubMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = scrubMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}
