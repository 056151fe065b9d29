package exec

import (
	"bytes"
	"sync"
)

// capture records one stream while mirroring every write into a shared
// combined buffer.
type capture struct {
	own      bytes.Buffer
	combined *combinedBuffer
}

func (c *capture) Write(p []byte) (int, error) {
	c.combined.write(p)
	return c.own.Write(p)
}

// combinedBuffer is written from both the stdout and stderr copy goroutines
// of os/exec.
type combinedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *combinedBuffer) write(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
}

func (b *combinedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
