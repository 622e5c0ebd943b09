package ldlog

import "go.uber.org/zap"

// ZapBaseLogger adapts a *zap.SugaredLogger to the BaseLogger interface so Loggers can write
// through zap's structured backend instead of the standard library's log.Logger. Adopted as the
// "rest of the pack" ambient logging dependency (both dorklyorg-dorkly and TimurManjosov-goflagship
// reach for zap for this concern).
type ZapBaseLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapBaseLogger wraps logger for use as a Loggers backend.
func NewZapBaseLogger(logger *zap.Logger) *ZapBaseLogger {
	return &ZapBaseLogger{sugar: logger.Sugar()}
}

func (z *ZapBaseLogger) Println(values ...interface{}) { z.sugar.Info(values...) }

func (z *ZapBaseLogger) Printf(format string, args ...interface{}) { z.sugar.Infof(format, args...) }

// NewZapLoggers returns a Loggers instance backed by a production zap.Logger at the given
// minimum level.
func NewZapLoggers(zapLogger *zap.Logger, minLevel LogLevel) Loggers {
	l := Loggers{}
	l.Init()
	l.SetBaseLogger(NewZapBaseLogger(zapLogger))
	l.SetMinLevel(minLevel)
	return l
}
