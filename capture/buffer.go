package capture

import "sync"

// frameBuffer is the shared frame store between the caller and the reader
// goroutine. The lock is held only for the duration of an append or snapshot,
// never across a blocking read.
type frameBuffer struct {
	mu     sync.Mutex
	frames [][]byte
}

func newFrameBuffer() *frameBuffer {
	return &frameBuffer{}
}

// Append stores an owned copy of data in arrival order.
func (b *frameBuffer) Append(data []byte) {
	frame := append([]byte(nil), data...)
	b.mu.Lock()
	b.frames = append(b.frames, frame)
	b.mu.Unlock()
}

// Snapshot returns a copy of the buffer contents at the moment of the call.
func (b *frameBuffer) Snapshot() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.frames))
	copy(out, b.frames)
	return out
}

func (b *frameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}
