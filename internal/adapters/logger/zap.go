package logger

import (
	"context"
	"os"

	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger адаптер для Zap, реализующий LoggerPort
type ZapLogger struct {
	logger *zap.SugaredLogger
	level  zap.AtomicLevel
}

// NewZapLogger создает новый логгер на основе Zap
func NewZapLogger(level string, isProduction bool) (interfaces.LoggerPort, error) {
	var config zap.Config

	if isProduction {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.Level = zap.NewAtomicLevelAt(parseLevel(level))
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &ZapLogger{logger: logger.Sugar(), level: config.Level}, nil
}

// NewNopLogger возвращает логгер, который ничего не пишет. Удобен в тестах
func NewNopLogger() interfaces.LoggerPort {
	return &ZapLogger{
		logger: zap.NewNop().Sugar(),
		level:  zap.NewAtomicLevelAt(zapcore.InfoLevel),
	}
}

func parseLevel(levelStr string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// GetLoggerLevel преобразует строковый уровень логирования в LogLevel
func GetLoggerLevel(levelStr string) interfaces.LogLevel {
	switch levelStr {
	case "debug":
		return interfaces.DebugLevel
	case "warn":
		return interfaces.WarnLevel
	case "error":
		return interfaces.ErrorLevel
	case "fatal":
		return interfaces.FatalLevel
	default:
		return interfaces.InfoLevel
	}
}

// convertToZapFields преобразует LogField в zap.Field
func convertToZapFields(args ...interface{}) []interface{} {
	for i, arg := range args {
		if field, ok := arg.(interfaces.LogField); ok {
			args[i] = zap.Any(field.Key, field.Value)
		}
	}
	return args
}

// extractFieldsFromContext извлекает поля запроса и сессии каталога из контекста
func extractFieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	for _, key := range []interfaces.ContextKey{
		interfaces.CtxRequestID,
		interfaces.CtxSessionID,
		interfaces.CtxTraceID,
	} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	return fields
}

func (z *ZapLogger) Debug(msg string, args ...interface{}) {
	z.logger.Debugw(msg, convertToZapFields(args...)...)
}

func (z *ZapLogger) Info(msg string, args ...interface{}) {
	z.logger.Infow(msg, convertToZapFields(args...)...)
}

func (z *ZapLogger) Warn(msg string, args ...interface{}) {
	z.logger.Warnw(msg, convertToZapFields(args...)...)
}

func (z *ZapLogger) Error(msg string, args ...interface{}) {
	z.logger.Errorw(msg, convertToZapFields(args...)...)
}

func (z *ZapLogger) Fatal(msg string, args ...interface{}) {
	z.logger.Fatalw(msg, convertToZapFields(args...)...)
	os.Exit(1)
}

func (z *ZapLogger) DebugWithContext(ctx context.Context, msg string, args ...interface{}) {
	z.logger.Debugw(msg, append(convertToZapFields(args...), extractFieldsFromContext(ctx)...)...)
}

func (z *ZapLogger) InfoWithContext(ctx context.Context, msg string, args ...interface{}) {
	z.logger.Infow(msg, append(convertToZapFields(args...), extractFieldsFromContext(ctx)...)...)
}

func (z *ZapLogger) WarnWithContext(ctx context.Context, msg string, args ...interface{}) {
	z.logger.Warnw(msg, append(convertToZapFields(args...), extractFieldsFromContext(ctx)...)...)
}

func (z *ZapLogger) ErrorWithContext(ctx context.Context, msg string, args ...interface{}) {
	z.logger.Errorw(msg, append(convertToZapFields(args...), extractFieldsFromContext(ctx)...)...)
}

// WithFields реализация интерфейса LoggerPort
func (z *ZapLogger) WithFields(fields ...interfaces.LogField) interfaces.LoggerPort {
	zapFields := make([]interface{}, 0, len(fields)*2)
	for _, field := range fields {
		zapFields = append(zapFields, field.Key, field.Value)
	}
	return &ZapLogger{logger: z.logger.With(zapFields...), level: z.level}
}

// WithField реализация интерфейса LoggerPort
func (z *ZapLogger) WithField(key string, value interface{}) interfaces.LoggerPort {
	return &ZapLogger{logger: z.logger.With(key, value), level: z.level}
}

// SetLevel меняет уровень у всех логгеров, порожденных от этого
func (z *ZapLogger) SetLevel(level interfaces.LogLevel) {
	switch level {
	case interfaces.DebugLevel:
		z.level.SetLevel(zapcore.DebugLevel)
	case interfaces.WarnLevel:
		z.level.SetLevel(zapcore.WarnLevel)
	case interfaces.ErrorLevel:
		z.level.SetLevel(zapcore.ErrorLevel)
	case interfaces.FatalLevel:
		z.level.SetLevel(zapcore.FatalLevel)
	default:
		z.level.SetLevel(zapcore.InfoLevel)
	}
}

// GetLevel реализация интерфейса LoggerPort
func (z *ZapLogger) GetLevel() interfaces.LogLevel {
	switch z.level.Level() {
	case zapcore.DebugLevel:
		return interfaces.DebugLevel
	case zapcore.WarnLevel:
		return interfaces.WarnLevel
	case zapcore.ErrorLevel:
		return interfaces.ErrorLevel
	case zapcore.FatalLevel, zapcore.PanicLevel, zapcore.DPanicLevel:
		return interfaces.FatalLevel
	default:
		return interfaces.InfoLevel
	}
}

// Sync реализация интерфейса LoggerPort
func (z *ZapLogger) Sync() error {
	return z.logger.Sync()
}
