package capture

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink receives whole converted blocks in acquisition order.
type Sink interface {
	// Write appends one complete block. A block is never split across calls.
	Write(block []byte) error
	// Close flushes and releases the sink. Only the first call has any effect.
	Close() error
}

type sinkFile interface {
	io.Writer
	io.Seeker
	Truncate(size int64) error
	Sync() error
	Close() error
}

// FileSink is a truncate-on-create raw binary file with no header or framing.
type FileSink struct {
	file   sinkFile
	path   string
	offset int64
	once   sync.Once
	err    error
}

func OpenFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return newFileSink(f, path), nil
}

func newFileSink(f sinkFile, path string) *FileSink {
	return &FileSink{file: f, path: path}
}

func (s *FileSink) Path() string {
	return s.path
}

// Size is the number of bytes of whole blocks written so far.
func (s *FileSink) Size() int64 {
	return s.offset
}

// Write appends block. If the write fails after some bytes reached the file,
// the file is cut back to the end of the previous block.
func (s *FileSink) Write(block []byte) error {
	n, err := s.file.Write(block)
	if err == nil && n != len(block) {
		err = io.ErrShortWrite
	}
	if err != nil {
		if n > 0 {
			if terr := s.rewind(); terr != nil {
				return fmt.Errorf("write block: %v (rewind: %w)", err, terr)
			}
		}
		return fmt.Errorf("write block: %w", err)
	}
	s.offset += int64(n)
	return nil
}

func (s *FileSink) rewind() error {
	if err := s.file.Truncate(s.offset); err != nil {
		return err
	}
	_, err := s.file.Seek(s.offset, io.SeekStart)
	return err
}

func (s *FileSink) Close() error {
	s.once.Do(func() {
		syncErr := s.file.Sync()
		closeErr := s.file.Close()
		switch {
		case syncErr != nil:
			s.err = fmt.Errorf("flush output file: %w", syncErr)
		case closeErr != nil:
			s.err = fmt.Errorf("close output file: %w", closeErr)
		}
	})
	return s.err
}
