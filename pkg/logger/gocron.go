package logger

import (
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

type gocronLogger struct {
	s *zap.SugaredLogger
}

// NewGocron adapts l to the scheduler's key/value logger interface.
func NewGocron(l *zap.Logger) gocron.Logger {
	return gocronLogger{s: l.Sugar()}
}

func (l gocronLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l gocronLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }
func (l gocronLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
