package ai

import (
	"sync"
	"sync/atomic"
)

// cappedBuffer keeps the first limit bytes written to it and silently drops
// the rest. Total counts every byte, kept or not, and is safe to read while
// the subprocess is still writing.
type cappedBuffer struct {
	limit int
	total atomic.Int64

	mu  sync.Mutex
	buf []byte
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.total.Add(int64(len(p)))

	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

func (b *cappedBuffer) Total() int64 {
	return b.total.Load()
}

// tail returns at most n bytes from the end of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
