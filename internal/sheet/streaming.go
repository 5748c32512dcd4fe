package sheet

// streaming.go holds the readers that clean CSV input before encoding/csv
// sees it. They work on the byte stream so large exports are never loaded
// into memory:
//
//   - bomSkipper drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Excel
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - countingReader tracks bytes consumed for debug logging
//
// cleanCSVStream applies them in that order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkipper strips a UTF-8 BOM from the start of the stream.
type bomSkipper struct {
	r       *bufio.Reader
	checked bool
}

func newBOMSkipper(r io.Reader) *bomSkipper {
	return &bomSkipper{r: bufio.NewReader(r)}
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// utf8Sanitizer replaces invalid UTF-8 bytes on the fly. A multi-byte rune
// split across two reads is held back until the next read completes it.
// Sanitized bytes that do not fit the caller's buffer wait in out.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
	out     []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(s.out) > 0 {
		n := copy(p, s.out)
		s.out = s.out[n:]
		return n, nil
	}
	if len(s.pending) < len(p) {
		return s.fill(p)
	}

	// p cannot hold the held-back prefix plus what completes it.
	buf := make([]byte, len(s.pending)+utf8.UTFMax)
	n, err := s.fill(buf)
	m := copy(p, buf[:n])
	if m < n {
		s.out = buf[m:n]
		return m, nil
	}
	return m, err
}

// fill reads into p, which must be longer than pending, and sanitizes it.
func (s *utf8Sanitizer) fill(p []byte) (int, error) {
	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns the number of bytes to hand
// out. Replacements are single '?' bytes so the output never grows.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	if utf8.Valid(data) {
		if !atEOF {
			if tail := splitRuneTail(data); tail > 0 {
				s.pending = append(s.pending, data[len(data)-tail:]...)
				return len(data) - tail
			}
		}
		return len(data)
	}

	w := 0
	for r := 0; r < len(data); {
		if !atEOF && !utf8.FullRune(data[r:]) {
			s.pending = append(s.pending, data[r:]...)
			return w
		}
		ru, size := utf8.DecodeRune(data[r:])
		if ru == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			r++
			continue
		}
		copy(data[w:], data[r:r+size])
		w += size
		r += size
	}
	return w
}

// splitRuneTail returns how many trailing bytes start a rune that is not
// complete yet.
func splitRuneTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if utf8.RuneStart(b) {
			if b >= utf8.RuneSelf && !utf8.FullRune(data[len(data)-i:]) {
				return i
			}
			return 0
		}
	}
	return 0
}

// countingReader tracks bytes read.
type countingReader struct {
	r         io.Reader
	BytesRead int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// cleanCSVStream strips the BOM first, then sanitizes, then counts.
func cleanCSVStream(r io.Reader) *countingReader {
	return &countingReader{r: newUTF8Sanitizer(newBOMSkipper(r))}
}
