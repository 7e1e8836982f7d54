// Package logger — тонкая обёртка над zap с printf-подобным API,
// который используется во всех слоях приложения.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
	Sync() error
}

// Config описывает параметры логгера.
type Config struct {
	Level             string // debug | info | warn | error
	Encoding          string // json | console
	DisableCaller     bool
	DisableStacktrace bool
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger собирает zap-логгер по конфигурации.
// Некорректный уровень заменяется на info, неизвестная кодировка — на json.
func NewZapLogger(cfg *Config) Logger {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoding := cfg.Encoding
	if encoding != "console" {
		encoding = "json"
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	l, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewExample()
	}

	return &zapLogger{sugar: l.Sugar()}
}

// NewNop возвращает логгер, который ничего не пишет. Удобен в тестах.
func NewNop() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

func (l *zapLogger) Debugf(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *zapLogger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *zapLogger) Warnf(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *zapLogger) Errorf(err error, format string, args ...any) {
	l.sugar.Errorw(fmt.Sprintf(format, args...), zap.Error(err))
}

func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}
