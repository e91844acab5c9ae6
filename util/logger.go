package util

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
)

// PanicSafeLogger tees log output to a file and stderr, syncing the file when a panic is logged.
type PanicSafeLogger struct {
	f  *os.File
	mw io.Writer
}

var std *PanicSafeLogger

func NewPanicSafeLogger(f *os.File) *PanicSafeLogger {
	std = &PanicSafeLogger{
		f:  f,
		mw: io.MultiWriter(f, os.Stderr),
	}
	return std
}

// OpenLogFile creates dir if needed and opens name inside it for appending.
func OpenLogFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func (l *PanicSafeLogger) Write(p []byte) (n int, err error) {
	return l.mw.Write(p)
}

func (l *PanicSafeLogger) Flush() error {
	return l.f.Sync()
}

func FlushLogger() error {
	if std == nil {
		return nil
	}
	return std.Flush()
}

func LogPanic(err any) {
	log.Printf("paniced with %v\n%s\n", err, string(debug.Stack()))
	_ = FlushLogger()
}
