// Package streambuf implements the fixed-size compacting input/output
// buffers the tagger streams through: a reader that slides its unconsumed
// tail to the front before refilling, and a writer flushed on demand, on
// shutdown, and on every newline in interactive mode.
package streambuf

import (
	"errors"
	"fmt"
	"io"

	"github.com/ynaga-jagger/jagger/internal/chartype"
	"github.com/ynaga-jagger/jagger/internal/jaggererr"
)

// BufSize is the fixed buffer size for both the reader and the writer.
const BufSize = chartype.BufSize

// Reader is a compacting ring buffer over an io.Reader. In line mode a
// refill stops after the first successful read, so a terminal user sees
// output per line typed; otherwise a refill tops the buffer up completely,
// making the analysis independent of how the source chunks its reads.
type Reader struct {
	buf      []byte
	p, q     int
	in       io.Reader
	eof      bool
	lineMode bool
}

// NewReader allocates a Reader and performs its initial fill.
func NewReader(in io.Reader, lineMode bool) (*Reader, error) {
	r := &Reader{buf: make([]byte, BufSize), in: in, lineMode: lineMode}
	if err := r.Refill(); err != nil {
		return nil, err
	}
	return r, nil
}

// Refill compacts the unconsumed tail to the front of the buffer, then
// reads from the source to top it up.
func (r *Reader) Refill() error {
	copy(r.buf, r.buf[r.p:r.q])
	r.q -= r.p
	r.p = 0
	for !r.eof && r.q < len(r.buf) {
		n, err := r.in.Read(r.buf[r.q:])
		r.q += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.eof = true
				return nil
			}
			return fmt.Errorf("%w: %v", jaggererr.ErrIO, err)
		}
		if n == 0 {
			r.eof = true
			return nil
		}
		if r.lineMode {
			return nil
		}
	}
	return nil
}

// Window returns the currently unconsumed bytes. Valid until the next
// Advance or Refill call.
func (r *Reader) Window() []byte {
	return r.buf[r.p:r.q]
}

// EOB reports whether the unconsumed window is empty.
func (r *Reader) EOB() bool {
	return r.p >= r.q
}

// Advance consumes n bytes from the front of the window.
func (r *Reader) Advance(n int) {
	r.p += n
}

// Readable reports whether at least min bytes remain in the window.
func (r *Reader) Readable(min int) bool {
	return r.p+min <= r.q
}

// Writer is a flush-on-demand output buffer over an io.Writer.
type Writer struct {
	buf []byte
	p   int
	out io.Writer
}

// NewWriter allocates a Writer.
func NewWriter(out io.Writer) *Writer {
	return &Writer{buf: make([]byte, BufSize), out: out}
}

// Writable reports whether at least min bytes of free space remain.
func (w *Writer) Writable(min int) bool {
	return w.p+min <= len(w.buf)
}

// Write appends s to the buffer. Callers must ensure Writable(len(s))
// first; the buffer is sized so the tagger's own flush policy guarantees
// this in practice.
func (w *Writer) Write(s []byte) {
	w.p += copy(w.buf[w.p:], s)
}

// WriteString is the string-argument form of Write.
func (w *Writer) WriteString(s string) {
	w.p += copy(w.buf[w.p:], s)
}

// Flush writes the buffered bytes out and resets the buffer. A Go
// io.Writer's Write contract already guarantees either a full write or a
// non-nil error, so there is no partial-write bookkeeping to do here.
func (w *Writer) Flush() error {
	if w.p == 0 {
		return nil
	}
	_, err := w.out.Write(w.buf[:w.p])
	w.p = 0
	if err != nil {
		return fmt.Errorf("%w: %v", jaggererr.ErrIO, err)
	}
	return nil
}
