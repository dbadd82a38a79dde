// Package source reads newline-delimited input for ingestion.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultMaxLineBytes bounds a single input line.
const DefaultMaxLineBytes = 10 * 1024 * 1024

var (
	// ErrLineTooLong is returned for a line longer than the configured limit.
	// The line is consumed and reading can continue.
	ErrLineTooLong = errors.New("line too long")
)

// LineSource yields one input line per call. It returns io.EOF once the
// stream is exhausted.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
	Close() error
}

type readerSource struct {
	reader       *bufio.Reader
	closer       io.Closer
	maxLineBytes int
}

// NewReaderSource reads lines from r. If r is an io.Closer, Close closes it.
func NewReaderSource(r io.Reader, maxLineBytes int) LineSource {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	s := &readerSource{
		reader:       bufio.NewReaderSize(r, 64*1024),
		maxLineBytes: maxLineBytes,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func NewStdinSource(maxLineBytes int) LineSource {
	return NewReaderSource(os.Stdin, maxLineBytes)
}

// ReadLine returns the next line without its terminator. Reads on the
// underlying stream are not interruptible, so ctx is only checked between
// lines.
func (s *readerSource) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		line    []byte
		tooLong bool
		sawData bool
	)
	for {
		chunk, err := s.reader.ReadSlice('\n')
		if len(chunk) > 0 {
			sawData = true
		}
		if !tooLong {
			// Allow room for a trailing "\r\n".
			if len(line)+len(chunk) > s.maxLineBytes+2 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read input: %w", err)
		}
		if errors.Is(err, io.EOF) && !sawData {
			return "", io.EOF
		}
		break
	}

	line = trimLineEnding(line)
	if tooLong || len(line) > s.maxLineBytes {
		return "", ErrLineTooLong
	}
	return string(line), nil
}

func (s *readerSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func trimLineEnding(line []byte) []byte {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
		if n > 0 && line[n-1] == '\r' {
			n--
		}
	}
	return line[:n]
}
