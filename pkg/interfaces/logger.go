package interfaces

import "context"

// LogLevel определяет уровни логирования
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// LogField представляет дополнительное поле в логе
type LogField struct {
	Key   string
	Value interface{}
}

// ContextKey тип ключей контекста, общий для middleware и логгера
type ContextKey string

// Ключи контекста, которые логгер переносит в записи
const (
	CtxRequestID ContextKey = "request_id"
	CtxSessionID ContextKey = "session_id"
	CtxTraceID   ContextKey = "trace_id"
)

// LoggerPort определяет интерфейс для системы логирования.
// Реализация может использовать любую библиотеку логирования (Zap, Zerolog и т.д.)
type LoggerPort interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	// Fatal логирует сообщение и завершает программу
	Fatal(msg string, args ...interface{})

	// Методы с контекстом добавляют request_id, session_id и trace_id, если они есть
	DebugWithContext(ctx context.Context, msg string, args ...interface{})
	InfoWithContext(ctx context.Context, msg string, args ...interface{})
	WarnWithContext(ctx context.Context, msg string, args ...interface{})
	ErrorWithContext(ctx context.Context, msg string, args ...interface{})

	// WithFields возвращает новый логгер с добавленными полями
	WithFields(fields ...LogField) LoggerPort

	// WithField возвращает новый логгер с добавленным полем
	WithField(key string, value interface{}) LoggerPort

	// SetLevel меняет минимальный уровень на лету
	SetLevel(level LogLevel)
	GetLevel() LogLevel

	// Sync сбрасывает буферы
	Sync() error
}
