package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level tags a log line.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger appends timestamped lines to a file. The terminal belongs to the
// running program, so everything diagnostic goes here instead.
type Logger struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// New creates (or reuses) the log file at path, creating parent directories.
func New(path string) (*Logger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("logging: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{path: path, file: f}, nil
}

// Path returns the file backing this logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Printf writes a single timestamped line. It satisfies procedure.Logger.
func (l *Logger) Printf(format string, args ...any) {
	l.write("", fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any) {
	l.write(LevelInfo, fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.write(LevelWarn, fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.write(LevelError, fmt.Sprintf(format, args...))
}

func (l *Logger) write(level Level, line string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	line = strings.TrimRight(line, "\n")
	timestamp := time.Now().Format(time.RFC3339)
	if level == "" {
		fmt.Fprintf(l.file, "[%s] %s\n", timestamp, line)
		return
	}
	fmt.Fprintf(l.file, "[%s] %-5s %s\n", timestamp, level, line)
}
