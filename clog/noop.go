package clog

import "context"

type noopLogger struct{}

// Discard 创建一个静默的 Logger，所有方法都是空操作
func Discard() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(msg string, fields ...Field)                             {}
func (noopLogger) Info(msg string, fields ...Field)                              {}
func (noopLogger) Warn(msg string, fields ...Field)                              {}
func (noopLogger) Error(msg string, fields ...Field)                             {}
func (noopLogger) Fatal(msg string, fields ...Field)                             {}
func (noopLogger) DebugContext(ctx context.Context, msg string, fields ...Field) {}
func (noopLogger) InfoContext(ctx context.Context, msg string, fields ...Field)  {}
func (noopLogger) WarnContext(ctx context.Context, msg string, fields ...Field)  {}
func (noopLogger) ErrorContext(ctx context.Context, msg string, fields ...Field) {}
func (noopLogger) FatalContext(ctx context.Context, msg string, fields ...Field) {}
func (l noopLogger) With(fields ...Field) Logger                                 { return l }
func (l noopLogger) WithNamespace(parts ...string) Logger                        { return l }
func (noopLogger) SetLevel(level Level) error                                    { return nil }
func (noopLogger) Flush()                                                        {}
