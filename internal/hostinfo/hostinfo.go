// Package hostinfo collects host, container, and caller metadata attached
// to every record. All lookups degrade to placeholder values instead of
// returning errors.
package hostinfo

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const modulePath = "github.com/tcpport0/chimera-logging"

const cgroupPath = "/proc/self/cgroup"

// Host resolves the host name for record metadata. Environment overrides
// win over the OS hostname; containerized processes without a hostname fall
// back to a truncated docker container id.
func Host() string {
	for _, key := range []string{"HOST_NAME", "HOSTNAME"} {
		if host := os.Getenv(key); host != "" {
			return host
		}
	}

	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}

	if id := containerID(); id != "" {
		if len(id) > 12 {
			id = id[:12]
		}
		return "container_" + id
	}

	return "unknown_host"
}

// Container returns container metadata when the process appears to run in
// one, nil otherwise.
func Container() map[string]any {
	id := containerID()
	if id == "" {
		return nil
	}

	info := map[string]any{"id": id}
	if tag := os.Getenv("CONTAINER_TAG"); tag != "" {
		info["tag"] = tag
	}
	if version := os.Getenv("CONTAINER_VERSION"); version != "" {
		info["version"] = version
	}
	return info
}

func containerID() string {
	if id := os.Getenv("CONTAINER_ID"); id != "" {
		return id
	}

	f, err := os.Open(cgroupPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "docker") {
			continue
		}
		parts := strings.Split(line, "/")
		if id := strings.TrimSpace(parts[len(parts)-1]); id != "" {
			return id
		}
	}
	return ""
}

// Caller walks the stack for the first frame outside this module and the
// runtime, and returns it as record fields.
func Caller() map[string]any {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if frame.Function != "" && !isInternalFrame(frame.Function) {
			module, function := splitFunction(frame.Function)
			return map[string]any{
				"module":   module,
				"function": function,
				"line":     frame.Line,
				"file":     filepath.Base(frame.File),
			}
		}
		if !more {
			break
		}
	}

	return map[string]any{
		"module":   "unknown_module",
		"function": "unknown_function",
		"line":     0,
		"file":     "unknown_file",
	}
}

func isInternalFrame(function string) bool {
	return strings.HasPrefix(function, modulePath) ||
		strings.HasPrefix(function, "runtime.")
}

// splitFunction splits a fully qualified symbol like
// "example.com/pkg.(*T).Method" into its package path and function name.
func splitFunction(qualified string) (module, function string) {
	slash := strings.LastIndex(qualified, "/")
	dot := strings.Index(qualified[slash+1:], ".")
	if dot < 0 {
		return qualified, "unknown_function"
	}
	dot += slash + 1
	return qualified[:dot], qualified[dot+1:]
}
