package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// New builds the base logger. Unknown levels fall back to info.
func New(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stdout
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           ParseLevel(level),
	})
}

// ParseLevel maps a level name to a log.Level, defaulting to info.
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Factory provides component-aware loggers with consistent field naming.
type Factory struct {
	baseLogger *log.Logger
	levels     map[string]log.Level

	mu      sync.Mutex
	loggers map[string]*log.Logger
}

// NewFactory creates a new logger factory.
func NewFactory(baseLogger *log.Logger) *Factory {
	return NewFactoryWithLevels(baseLogger, nil)
}

// NewFactoryWithLevels creates a factory where some components log at their own level.
func NewFactoryWithLevels(baseLogger *log.Logger, componentLevels map[string]string) *Factory {
	levels := make(map[string]log.Level, len(componentLevels))
	for id, lvl := range componentLevels {
		levels[id] = ParseLevel(lvl)
	}
	return &Factory{
		baseLogger: baseLogger,
		levels:     levels,
		loggers:    make(map[string]*log.Logger),
	}
}

// ForComponent returns the logger for a component, creating it once.
func (lf *Factory) ForComponent(id string) *log.Logger {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if l, ok := lf.loggers[id]; ok {
		return l
	}
	l := lf.baseLogger.WithPrefix(id)
	if lvl, ok := lf.levels[id]; ok {
		l.SetLevel(lvl)
	}
	lf.loggers[id] = l
	return l
}

// Base returns the logger every component derives from.
func (lf *Factory) Base() *log.Logger {
	return lf.baseLogger
}
