// Package readbuf implements the pull cursor shared by the text
// codec readers: a lazily refilled, forward-only window of runes over
// an io.Reader, with line/column tracking for error messages.
package readbuf

import (
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const chunkSize = 4096

// Buffer is a forward-only rune cursor. It reads from the source only
// when lookahead outruns what has been buffered.
type Buffer struct {
	src io.Reader

	raw     []byte // undecoded bytes carried between fills
	pending []rune // decoded, not yet consumed
	eof     bool
	err     error

	line int // 1-based
	col  int // 1-based, in runes
}

// New returns a Buffer reading from src.
func New(src io.Reader) *Buffer {
	return &Buffer{src: src, line: 1, col: 1}
}

// NewString returns a Buffer over a fixed string.
func NewString(s string) *Buffer {
	b := &Buffer{eof: true, line: 1, col: 1}
	b.pending = []rune(s)
	return b
}

// Line returns the 1-based line of the next unconsumed rune.
func (b *Buffer) Line() int { return b.line }

// Column returns the 1-based rune column of the next unconsumed rune.
func (b *Buffer) Column() int { return b.col }

// Err returns the first source error other than io.EOF, if any.
func (b *Buffer) Err() error { return b.err }

// fill makes at least n runes available, or sets eof.
func (b *Buffer) fill(n int) {
	for len(b.pending) < n && !b.eof && b.err == nil {
		chunk := make([]byte, chunkSize)
		read, err := b.src.Read(chunk)
		if read > 0 {
			b.raw = append(b.raw, chunk[:read]...)
			for len(b.raw) > 0 {
				r, size := utf8.DecodeRune(b.raw)
				if r == utf8.RuneError && !utf8.FullRune(b.raw) {
					break // partial rune, wait for more bytes
				}
				b.pending = append(b.pending, r)
				b.raw = b.raw[size:]
			}
		}
		if err == io.EOF {
			b.eof = true
			if len(b.raw) > 0 {
				b.err = errors.New("readbuf: truncated utf-8 sequence at end of input")
			}
		} else if err != nil {
			b.err = errors.Wrap(err, "readbuf: failed to refill")
		}
	}
}

// Peek returns the next rune without consuming it. ok is false at end
// of input.
func (b *Buffer) Peek() (r rune, ok bool) {
	return b.PeekAt(0)
}

// PeekAt returns the rune n positions ahead without consuming
// anything.
func (b *Buffer) PeekAt(n int) (r rune, ok bool) {
	b.fill(n + 1)
	if n >= len(b.pending) {
		return 0, false
	}
	return b.pending[n], true
}

// Pop consumes and returns the next rune. ok is false at end of input.
func (b *Buffer) Pop() (r rune, ok bool) {
	b.fill(1)
	if len(b.pending) == 0 {
		return 0, false
	}
	r = b.pending[0]
	b.pending = b.pending[1:]
	if r == '\n' {
		b.line++
		b.col = 1
	} else {
		b.col++
	}
	return r, true
}

// Skip consumes n runes, or everything left if fewer remain.
func (b *Buffer) Skip(n int) {
	for i := 0; i < n; i++ {
		if _, ok := b.Pop(); !ok {
			return
		}
	}
}

// HasPrefix reports whether the unconsumed input starts with s.
func (b *Buffer) HasPrefix(s string) bool {
	i := 0
	for _, want := range s {
		r, ok := b.PeekAt(i)
		if !ok || r != want {
			return false
		}
		i++
	}
	return true
}

// TakeWhile consumes and returns the longest run of runes satisfying
// pred.
func (b *Buffer) TakeWhile(pred func(rune) bool) string {
	var out []rune
	for {
		r, ok := b.Peek()
		if !ok || !pred(r) {
			return string(out)
		}
		b.Pop()
		out = append(out, r)
	}
}

// SkipWhile consumes the longest run of runes satisfying pred and
// returns how many were dropped.
func (b *Buffer) SkipWhile(pred func(rune) bool) int {
	n := 0
	for {
		r, ok := b.Peek()
		if !ok || !pred(r) {
			return n
		}
		b.Pop()
		n++
	}
}

// AtEnd reports whether the input is exhausted.
func (b *Buffer) AtEnd() bool {
	_, ok := b.Peek()
	return !ok
}
