package cftable

import (
	"bufio"
	"io"
	"os"
)

// Sink is the append-only byte output a Writer exclusively owns for
// its lifetime: sequential appends, an explicit flush, a durability
// barrier and a final close. Retry policies, if any, belong to the
// sink, not to the writer.
type Sink interface {
	Append(p []byte) error
	Flush() error
	Sync() error
	Close() error
}

// NewFileSink wraps an os file into a buffered sink. The file is
// owned by the sink from this point on and is closed with it.
func NewFileSink(f *os.File) Sink {
	return &fileSink{f: f, b: bufio.NewWriter(f)}
}

type fileSink struct {
	f *os.File
	b *bufio.Writer
}

func (s *fileSink) Append(p []byte) error {
	_, err := s.b.Write(p)
	return err
}

func (s *fileSink) Flush() error { return s.b.Flush() }

func (s *fileSink) Sync() error {
	if err := s.b.Flush(); err != nil {
		return err
	}
	return s.f.Sync()
}

func (s *fileSink) Close() error {
	if err := s.b.Flush(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}

// NewStreamSink wraps a plain writer into a sink. Flush and Sync are
// no-ops; Close closes the writer if it implements io.Closer. Useful
// for in-memory tables.
func NewStreamSink(w io.Writer) Sink {
	return &streamSink{w: w}
}

type streamSink struct {
	w io.Writer
}

func (s *streamSink) Append(p []byte) error {
	_, err := s.w.Write(p)
	return err
}

func (s *streamSink) Flush() error { return nil }
func (s *streamSink) Sync() error  { return nil }

func (s *streamSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
