package diversity

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with diversity-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithViewpoint adds a viewpoint field to the logger.
func (l *Logger) WithViewpoint(viewpoint float64) *Logger {
	return &Logger{
		Logger: l.Logger.With("viewpoint", viewpoint),
	}
}

// WithMeasure adds a measure field to the logger.
func (l *Logger) WithMeasure(measure Measure) *Logger {
	return &Logger{
		Logger: l.Logger.With("measure", string(measure)),
	}
}

// WithShape adds species and subcommunity count fields to the logger.
func (l *Logger) WithShape(species, subcommunities int) *Logger {
	return &Logger{
		Logger: l.Logger.With("species", species, "subcommunities", subcommunities),
	}
}

// LogSubcommunityDiversity logs a subcommunity diversity evaluation.
func (l *Logger) LogSubcommunityDiversity(viewpoint float64, measure Measure, err error) {
	if err != nil {
		l.Error("subcommunity diversity failed",
			"viewpoint", viewpoint,
			"measure", string(measure),
			"error", err,
		)
	} else {
		l.Debug("subcommunity diversity computed",
			"viewpoint", viewpoint,
			"measure", string(measure),
		)
	}
}

// LogMetacommunityDiversity logs a metacommunity diversity evaluation.
func (l *Logger) LogMetacommunityDiversity(viewpoint float64, measure Measure, value float64, err error) {
	if err != nil {
		l.Error("metacommunity diversity failed",
			"viewpoint", viewpoint,
			"measure", string(measure),
			"error", err,
		)
	} else {
		l.Debug("metacommunity diversity computed",
			"viewpoint", viewpoint,
			"measure", string(measure),
			"value", value,
		)
	}
}

// LogWeightedSimilarities logs a similarity product evaluation.
func (l *Logger) LogWeightedSimilarities(species, columns int, err error) {
	if err != nil {
		l.Error("weighted similarities failed",
			"species", species,
			"columns", columns,
			"error", err,
		)
	} else {
		l.Debug("weighted similarities computed",
			"species", species,
			"columns", columns,
		)
	}
}
