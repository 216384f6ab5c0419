package chimera

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/tcpport0/chimera-logging/config"
	"github.com/tcpport0/chimera-logging/internal/hostinfo"
	"github.com/tcpport0/chimera-logging/record"
)

// ErrMissingTag is returned by NewFormatter when no tag is available from
// either the environment or the caller.
var ErrMissingTag = errors.New("tag is required via CHIMERA_TAG/LOG_TAG or an option")

// recordFormatter is the capability the Logger needs from its formatter.
// nullFormatter is the degraded stand-in used when construction failed.
type recordFormatter interface {
	Format(message, level string, meta, fields map[string]any, err error) record.Record
}

type nullFormatter struct{}

func (nullFormatter) Format(string, string, map[string]any, map[string]any, error) record.Record {
	return record.Record{}
}

// Formatter assembles enriched Records. Static metadata (tag, environment,
// host, service, container) is resolved once at construction; per-call
// metadata is merged on top.
type Formatter struct {
	tag         string
	environment string
	host        string
	service     string
	container   map[string]any
}

// NewFormatter resolves static metadata. The environment tag wins over the
// argument, matching how deployments pin the tag from outside the process.
func NewFormatter(tag, environment, host string) (*Formatter, error) {
	if envTag := config.Tag(); envTag != "" {
		tag = envTag
	}
	if tag == "" {
		return nil, ErrMissingTag
	}

	if environment == "" {
		environment = config.Environment()
	}
	if host == "" {
		host = hostinfo.Host()
	}

	return &Formatter{
		tag:         tag,
		environment: environment,
		host:        host,
		service:     config.Service(),
		container:   hostinfo.Container(),
	}, nil
}

// Format builds one Record. It never panics into the caller: a formatting
// failure yields a degraded error-level Record instead of losing the event.
func (f *Formatter) Format(message, level string, meta, fields map[string]any, err error) (rec record.Record) {
	defer func() {
		if r := recover(); r != nil {
			rec = f.degraded(message, r)
		}
	}()

	m := map[string]any{
		"timestamp":   timestamp(),
		"tag":         f.tag,
		"environment": f.environment,
		"host":        f.host,
	}
	if f.service != "" {
		m["service"] = f.service
	}
	if f.container != nil {
		m["container"] = f.container
	}
	for k, v := range meta {
		m[k] = v
	}

	flds := map[string]any{
		"message": message,
		"level":   level,
	}
	for k, v := range hostinfo.Caller() {
		flds[k] = v
	}
	for k, v := range fields {
		flds[k] = v
	}
	if err != nil {
		flds["error"] = record.ErrorInfo(err)
	}

	return record.Record{Meta: m, Fields: flds}.Scrub()
}

func (f *Formatter) degraded(message string, cause any) record.Record {
	return record.Record{
		Meta: map[string]any{
			"timestamp":   timestamp(),
			"tag":         f.tag,
			"environment": f.environment,
			"host":        f.host,
		},
		Fields: map[string]any{
			"message": message,
			"level":   LevelError,
			"error":   fmt.Sprintf("error formatting log: %v", cause),
		},
	}
}

// timestamp is seconds since the epoch as a float, the wire convention of
// the ingestion stream.
func timestamp() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
