package motor

import (
	"context"

	"go.uber.org/zap"
)

// LogSink is a dry-run sink that only logs what it is told, at debug level
// so a 100Hz loop does not flood the console.
type LogSink struct {
	logger *zap.SugaredLogger
}

func NewLogSink(logger *zap.SugaredLogger) *LogSink {
	return &LogSink{logger: logger}
}

func (l *LogSink) Drive(_ context.Context, id ID, value float64) error {
	l.logger.Debugw("drive", "motor", id, "value", Saturate(value))
	return nil
}

func (l *LogSink) Coast(_ context.Context, id ID) error {
	l.logger.Debugw("coast", "motor", id)
	return nil
}

func (l *LogSink) Close() error {
	l.logger.Info("dry-run motors released")
	return nil
}
