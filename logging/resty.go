// Package logging adapts third-party loggers onto zerolog.
package logging

import (
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Resty returns a resty.Logger that writes through logger. Resty reports
// failed attempts as errors; those are already surfaced by the callers, so
// everything is emitted at debug level.
func Resty(logger zerolog.Logger) resty.Logger {
	return restyLogger{logger: logger}
}

type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Debug().Str("component", "resty").Msgf(format, v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Debug().Str("component", "resty").Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Str("component", "resty").Msgf(format, v...)
}
