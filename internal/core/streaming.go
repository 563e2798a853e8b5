package core

// streaming.go cleans CSV input as it is read, without buffering the whole
// file:
//
//   - a UTF-8 byte order mark, written by Excel and other Windows tools, is
//     dropped from the start of the stream
//   - bytes that are not valid UTF-8 become U+FFFD so bad input cannot
//     reach display, filtering or export
//
// Use WrapCSVInput to apply both in the right order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WrapCSVInput returns r with a leading BOM removed and invalid UTF-8
// replaced. The BOM is stripped first so its bytes are never sanitized.
func WrapCSVInput(r io.Reader) io.Reader {
	return NewUTF8Sanitizer(NewBOMSkippingReader(r))
}

// BOMSkippingReader drops a UTF-8 BOM at the start of the stream.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader wraps r.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		if head, err := b.br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			b.br.Discard(len(utf8BOM))
		}
	}
	return b.br.Read(p)
}

// UTF8Sanitizer replaces invalid UTF-8 with the Unicode replacement
// character. A multi-byte sequence split across reads is held back until
// it is complete or the stream ends.
type UTF8Sanitizer struct {
	src     io.Reader
	scratch [4096]byte
	pending []byte // undecoded input
	out     []byte // sanitized output not yet returned
	err     error
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{src: r}
}

// Read implements io.Reader. Buffered output is returned before the
// source's error.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *UTF8Sanitizer) fill() {
	n, err := s.src.Read(s.scratch[:])
	s.pending = append(s.pending, s.scratch[:n]...)
	s.err = err
	atEOF := err != nil

	s.out = s.out[:0]
	i := 0
	for i < len(s.pending) {
		c := s.pending[i]
		if c < utf8.RuneSelf {
			s.out = append(s.out, c)
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(s.pending[i:]) {
			break
		}
		r, size := utf8.DecodeRune(s.pending[i:])
		if r == utf8.RuneError && size == 1 {
			s.out = utf8.AppendRune(s.out, utf8.RuneError)
		} else {
			s.out = append(s.out, s.pending[i:i+size]...)
		}
		i += size
	}
	s.pending = append(s.pending[:0], s.pending[i:]...)
}
