package trickle

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder turns a sequence of byte chunks into text. Bytes of a multi-byte
// character split across chunks are held back until the rest arrives, so
// Decode never returns a truncated character.
type Decoder struct {
	t     transform.Transformer
	carry []byte
	dst   []byte
}

// NewDecoder returns a Decoder for enc. A nil enc means UTF-8. Invalid input
// is replaced with U+FFFD.
func NewDecoder(enc encoding.Encoding) *Decoder {
	if enc == nil {
		enc = unicode.UTF8
	}
	return &Decoder{
		t:   enc.NewDecoder(),
		dst: make([]byte, 1024),
	}
}

// Decode returns the text for p, prefixed with anything held back from the
// previous call. Trailing bytes of an incomplete character are kept for the
// next call.
func (d *Decoder) Decode(p []byte) string {
	return d.transform(p, false)
}

// Flush returns the text for any held-back bytes and resets the decoder.
// Incomplete sequences become U+FFFD.
func (d *Decoder) Flush() string {
	s := d.transform(nil, true)
	d.t.Reset()
	return s
}

// Pending reports how many bytes are held back.
func (d *Decoder) Pending() int {
	return len(d.carry)
}

func (d *Decoder) transform(p []byte, atEOF bool) string {
	src := p
	if len(d.carry) > 0 {
		src = append(d.carry, p...)
		d.carry = nil
	}
	var sb strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, atEOF)
		sb.Write(d.dst[:nDst])
		src = src[nSrc:]
		switch err {
		case nil:
			if len(src) == 0 {
				return sb.String()
			}
			if nDst == 0 && nSrc == 0 {
				d.carry = append([]byte(nil), src...)
				return sb.String()
			}
		case transform.ErrShortDst:
			if nDst == 0 && nSrc == 0 {
				d.dst = make([]byte, 2*len(d.dst))
			}
		case transform.ErrShortSrc:
			if !atEOF {
				d.carry = append([]byte(nil), src...)
				return sb.String()
			}
			sb.WriteRune(utf8.RuneError)
			return sb.String()
		default:
			// Skip one byte so a transformer that refuses input cannot stall us.
			sb.WriteRune(utf8.RuneError)
			if len(src) == 0 {
				return sb.String()
			}
			src = src[1:]
		}
	}
}
