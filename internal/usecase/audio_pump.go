package usecase

import (
	"errors"
	"io"
	"log/slog"
	"sync"
)

// chunkBuffer accumulates captured audio chunks in arrival order.
type chunkBuffer struct {
	mu     sync.Mutex
	chunks [][]byte
	size   int
	err    error
}

func (b *chunkBuffer) append(chunk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks = append(b.chunks, append([]byte(nil), chunk...))
	b.size += len(chunk)
}

func (b *chunkBuffer) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		b.err = err
	}
}

// drain concatenates every chunk into one payload and empties the buffer.
func (b *chunkBuffer) drain() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]byte, 0, b.size)
	for _, chunk := range b.chunks {
		out = append(out, chunk...)
	}
	err := b.err
	b.chunks = nil
	b.size = 0
	b.err = nil
	return out, err
}

func pumpAudioChunks(
	audio io.Reader,
	buffer *chunkBuffer,
	chunkSize int,
	logger *slog.Logger,
	done chan struct{},
) {
	defer close(done)

	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			buffer.append(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("audio capture error", "error", err)
				buffer.fail(err)
			}
			return
		}
	}
}
