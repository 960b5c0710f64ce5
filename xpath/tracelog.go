package xpath

import (
	"fmt"
	"log"
	"os"
)

// traceLevel orders the four verbosity tiers a caller can select.
type traceLevel int

const (
	levelWarning traceLevel = iota
	levelInfo
	levelDetail
	levelTrace
)

// parseTraceLevel maps a level name to its tier, defaulting an
// unrecognized or empty value to levelInfo rather than the quietest
// tier, so a typo'd level still surfaces useful trace output.
func parseTraceLevel(s string) traceLevel {
	switch s {
	case "warning":
		return levelWarning
	case "detail":
		return levelDetail
	case "trace":
		return levelTrace
	case "info":
		return levelInfo
	default:
		return levelInfo
	}
}

// traceLogger is a thin wrapper around log.Logger, gating emission
// below the configured level and no-op'ing entirely when tracing is
// disabled, in the style of distri's internal/trace package.
type traceLogger struct {
	enabled bool
	level   traceLevel
	log     *log.Logger
}

func newTraceLogger(enabled bool, level string) *traceLogger {
	return &traceLogger{
		enabled: enabled,
		level:   parseTraceLevel(level),
		log:     log.New(os.Stderr, "[xpath] ", log.LstdFlags),
	}
}

func (t *traceLogger) warning(format string, args ...interface{}) { t.emit(levelWarning, format, args...) }
func (t *traceLogger) info(format string, args ...interface{})    { t.emit(levelInfo, format, args...) }
func (t *traceLogger) detail(format string, args ...interface{})  { t.emit(levelDetail, format, args...) }
func (t *traceLogger) trace(format string, args ...interface{})   { t.emit(levelTrace, format, args...) }

func (t *traceLogger) emit(lvl traceLevel, format string, args ...interface{}) {
	if t == nil || !t.enabled || lvl > t.level {
		return
	}
	t.log.Print(fmt.Sprintf(format, args...))
}
