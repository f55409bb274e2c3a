package ingest

// stream.go holds the reader chain used for CSV input:
//
//	source -> size limit -> byte counter -> BOM skip -> UTF-8 sanitizer -> csv.Reader
//
// CSV records are decoded while the upload streams in rather than after the
// whole body has been buffered.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

// countingReader tracks bytes read from the source.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}

var replacementChar = []byte(string(utf8.RuneError))

// utf8Sanitizer replaces invalid UTF-8 with U+FFFD as data passes through.
// A multi-byte sequence split across reads is held back until it completes.
type utf8Sanitizer struct {
	r       io.Reader
	scratch [4096]byte
	pending []byte // raw bytes not yet decoded
	out     []byte // sanitized bytes not yet returned
	off     int
	err     error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for s.off == len(s.out) {
		if s.err != nil {
			return 0, s.err
		}
		s.out, s.off = s.out[:0], 0

		n, err := s.r.Read(s.scratch[:])
		s.pending = append(s.pending, s.scratch[:n]...)
		s.err = err
		s.decode(err != nil)
	}

	n := copy(p, s.out[s.off:])
	s.off += n
	return n, nil
}

// decode moves complete runes from pending to out. At EOF a truncated
// trailing sequence is replaced too.
func (s *utf8Sanitizer) decode(atEOF bool) {
	data := s.pending
	i := 0
	for i < len(data) {
		if data[i] < utf8.RuneSelf {
			s.out = append(s.out, data[i])
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(data[i:]) {
			break
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			s.out = append(s.out, replacementChar...)
		} else {
			s.out = append(s.out, data[i:i+size]...)
		}
		i += size
	}
	s.pending = append(s.pending[:0], data[i:]...)
}
