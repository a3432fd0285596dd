package clog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，按严重程度递增
type Level int

const (
	DebugLevel Level = iota - 4
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// 下标为 Level - DebugLevel
var levels = [...]struct {
	name string
	slog slog.Level
}{
	{"debug", slog.LevelDebug},
	{"info", slog.LevelInfo},
	{"warn", slog.LevelWarn},
	{"error", slog.LevelError},
	{"fatal", slog.LevelError + 4},
}

func (l Level) known() bool {
	return l >= DebugLevel && l <= FatalLevel
}

func (l Level) String() string {
	if !l.known() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levels[l-DebugLevel].name
}

// 未知级别按 Info 处理
func (l Level) slogLevel() slog.Level {
	if !l.known() {
		return slog.LevelInfo
	}
	return levels[l-DebugLevel].slog
}

// ParseLevel 不区分大小写地解析级别名，无法识别时返回 InfoLevel 和错误
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(s)
	for i, lv := range levels {
		if lv.name == name {
			return DebugLevel + Level(i), nil
		}
	}
	return InfoLevel, fmt.Errorf("unknown log level: %s", s)
}
