package util

import (
	"strings"
	"testing"
)

// NewTestingLogger routes committed log output to tb.Log so it is only shown for failing tests.
func NewTestingLogger(tb testing.TB) *CommitLogger {
	return &CommitLogger{
		Committer: func(p []byte) {
			tb.Log(strings.TrimRight(string(p), "\n"))
		},
		buf: nil,
	}
}

// TestingWriter commits every Write immediately; suitable for log.SetOutput in tests.
type TestingWriter struct {
	l *CommitLogger
}

func NewTestingWriter(tb testing.TB) *TestingWriter {
	return &TestingWriter{l: NewTestingLogger(tb)}
}

func (w *TestingWriter) Write(p []byte) (int, error) {
	n, err := w.l.Write(p)
	w.l.Commit()
	return n, err
}
