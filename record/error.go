package record

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// ErrorInfo captures err as the error block of a Record: the concrete Go
// type, the message, and a traceback string carrying a stack trace. The
// traceback always contains the error type and message so a reader can make
// sense of it without the surrounding record.
func ErrorInfo(err error) map[string]any {
	if err == nil {
		return nil
	}
	return map[string]any{
		"type":      fmt.Sprintf("%T", err),
		"message":   err.Error(),
		"traceback": traceback(err),
	}
}

func traceback(err error) string {
	annotated := err
	if _, ok := err.(stackTracer); !ok {
		annotated = pkgerrors.WithStack(err)
	}
	return fmt.Sprintf("%T: %s\n%+v", err, err.Error(), annotated)
}
