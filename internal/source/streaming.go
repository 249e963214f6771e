package source

// streaming.go cleans uploaded and local CSV tables while they are read.
//
//   - skipBOM drops the UTF-8 byte order mark Windows tools prepend
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - sizeLimitReader fails with ErrFileTooLarge past a byte budget
//
// Use WrapForStreaming to apply all of them in the correct order.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrFileTooLarge is returned when a table exceeds the configured size.
var ErrFileTooLarge = errors.New("file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// utf8Sanitizer replaces each invalid UTF-8 byte with '?'. A multi-byte
// sequence split across two reads is held back until it is complete.
type utf8Sanitizer struct {
	r     io.Reader
	chunk []byte
	held  []byte // undecoded tail of the previous read
	out   []byte // sanitized bytes not yet returned
	err   error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, chunk: make([]byte, 32*1024)}
}

// Read implements io.Reader.
func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		n, err := s.r.Read(s.chunk)
		s.held = append(s.held, s.chunk[:n]...)
		s.err = err
		s.decode(err != nil)
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// decode moves complete runes from held to out. With final set, a
// truncated sequence at the end is treated as invalid.
func (s *utf8Sanitizer) decode(final bool) {
	data := s.held
	for len(data) > 0 {
		if !final && !utf8.FullRune(data) {
			break
		}
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			s.out = append(s.out, '?')
		} else {
			s.out = append(s.out, data[:size]...)
		}
		data = data[size:]
	}
	s.held = append(s.held[:0], data...)
}

// sizeLimitReader reads at most limit bytes and then fails instead of
// silently truncating the table.
type sizeLimitReader struct {
	r         io.Reader
	limit     int64
	remaining int64
}

// Read implements io.Reader.
func (l *sizeLimitReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		var extra [1]byte
		n, err := l.r.Read(extra[:])
		if n > 0 {
			return 0, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, l.limit)
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}

// WrapForStreaming applies the size limit, BOM removal and UTF-8
// sanitization. maxBytes <= 0 disables the limit.
//
// The order matters: the limit counts raw bytes, and the BOM must be gone
// before sanitization.
func WrapForStreaming(r io.Reader, maxBytes int64) io.Reader {
	if maxBytes > 0 {
		r = &sizeLimitReader{r: r, limit: maxBytes, remaining: maxBytes}
	}
	return newUTF8Sanitizer(skipBOM(r))
}
