package terminal

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// streamDecoder converts the raw PTY byte stream to runes. Multi-byte UTF-8
// sequences split across reads resume on the next chunk; invalid bytes are
// replaced with U+FFFD by the underlying decoder.
type streamDecoder struct {
	tr      transform.Transformer
	pending []byte
	dst     []byte
}

func newStreamDecoder() *streamDecoder {
	return &streamDecoder{
		tr:  unicode.UTF8.NewDecoder(),
		dst: make([]byte, bufLen),
	}
}

// decode consumes a chunk and returns every complete rune it yields. An
// incomplete trailing sequence is buffered for the next call. The pending
// tail can never exceed utf8.UTFMax-1 bytes; if a hostile stream keeps the
// tail from completing the decoder flushes it as replacement runes rather
// than letting it grow.
func (d *streamDecoder) decode(chunk []byte) []rune {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
		d.pending = nil
	}

	var out []rune
	for len(src) > 0 {
		nDst, nSrc, err := d.tr.Transform(d.dst, src, false)
		out = appendRunes(out, d.dst[:nDst])
		src = src[nSrc:]
		switch err {
		case nil:
			return out
		case transform.ErrShortSrc:
			if len(src) >= utf8.UTFMax {
				// cannot be a legitimate partial sequence; emit a
				// replacement and move on rather than buffer forever
				src = src[1:]
				out = append(out, utf8.RuneError)
				continue
			}
			d.pending = append(d.pending[:0], src...)
			return out
		case transform.ErrShortDst:
			// dst full, loop again
		default:
			// decoder never returns other errors for UTF-8, but skip a
			// byte rather than spin
			if len(src) > 0 {
				src = src[1:]
				out = append(out, utf8.RuneError)
			}
		}
	}
	return out
}

// flush drains any buffered partial sequence, emitting U+FFFD for bytes
// that never completed. Call at end of stream.
func (d *streamDecoder) flush() []rune {
	if len(d.pending) == 0 {
		return nil
	}
	src := d.pending
	d.pending = nil
	var out []rune
	for len(src) > 0 {
		nDst, nSrc, err := d.tr.Transform(d.dst, src, true)
		out = appendRunes(out, d.dst[:nDst])
		src = src[nSrc:]
		if err != nil && err != transform.ErrShortDst && nSrc == 0 {
			src = src[1:]
			out = append(out, utf8.RuneError)
		}
	}
	d.tr.Reset()
	return out
}

func appendRunes(out []rune, b []byte) []rune {
	for _, r := range string(b) {
		out = append(out, r)
	}
	return out
}
