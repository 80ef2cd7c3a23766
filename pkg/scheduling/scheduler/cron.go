package scheduler

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// standardParser accepts five-field expressions and descriptors such as
// "@hourly" or "@every 5m".
var standardParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateExpression reports whether expr is a valid schedule.
func ValidateExpression(expr string) error {
	_, err := standardParser.Parse(expr)
	return err
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

var _ cron.Logger = cronLogger{}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
