package util

// CommitLogger buffers writes and hands the accumulated bytes to Committer on Commit, so a group of
// log lines is emitted together.
type CommitLogger struct {
	Committer func(p []byte)
	buf       []byte
}

// Reserve grows the buffer to hold at least n bytes.
func (l *CommitLogger) Reserve(n int) {
	if cap(l.buf) >= n {
		return
	}
	grown := make([]byte, len(l.buf), n)
	copy(grown, l.buf)
	l.buf = grown
}

func (l *CommitLogger) Write(p []byte) (int, error) {
	l.buf = append(l.buf, p...)
	return len(p), nil
}

func (l *CommitLogger) Commit() {
	if l.Committer != nil && len(l.buf) > 0 {
		l.Committer(l.buf)
	}
	l.Reset()
}

func (l *CommitLogger) Reset() {
	l.buf = l.buf[:0]
}
