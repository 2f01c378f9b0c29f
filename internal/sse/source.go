package sse

import (
	"context"
	"io"
	"sync"
)

// ByteSource yields raw chunks of a streamed response body.
// Next returns io.EOF once the stream is exhausted.
type ByteSource interface {
	Next(ctx context.Context) ([]byte, error)
	Release() error
}

const defaultChunkSize = 4 * 1024

// ReaderSource adapts an io.ReadCloser (usually an HTTP response body) to a ByteSource.
// Release closes the reader at most once, however many times it is called.
type ReaderSource struct {
	rc  io.ReadCloser
	buf []byte

	once       sync.Once
	releaseErr error
}

func NewReaderSource(rc io.ReadCloser, chunkSize int) *ReaderSource {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &ReaderSource{rc: rc, buf: make([]byte, chunkSize)}
}

func (s *ReaderSource) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.rc.Read(s.buf)
		if n > 0 {
			out := make([]byte, n)
			copy(out, s.buf[:n])
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (s *ReaderSource) Release() error {
	s.once.Do(func() {
		s.releaseErr = s.rc.Close()
	})
	return s.releaseErr
}
