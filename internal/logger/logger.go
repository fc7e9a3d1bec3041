// Package logger provides the configured zerolog logger.
package logger

import (
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

func init() {
	// The stack comes from the first pkg/errors wrap in the chain, so it
	// points at the storage call that failed. Errors never wrapped that way
	// get the stack of the log call.
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		var st stackTracer
		if !pkgerrors.As(err, &st) {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
}

// New returns a JSON logger on stdout tagged with service.
func New(service string) zerolog.Logger {
	return NewWriter(os.Stdout, service)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, service string) zerolog.Logger {
	return zerolog.New(w).With().
		Str("service", service).
		Timestamp().
		Logger()
}

// SetLevel sets the global minimum level (trace, debug, info, warn, error).
// An empty level leaves the current setting untouched.
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
