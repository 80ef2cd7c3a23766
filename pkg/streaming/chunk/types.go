package chunk

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// ID identifies a chunk. The source assigns ids from 0 upward without gaps
// and every later stage keeps the id of the chunk it transformed.
type ID uint64

// Type is a data representation a stage can emit or accept.
type Type uint8

const (
	// Bytes is the raw byte representation.
	Bytes Type = iota + 1
	// Words is a sequence of big-endian 16-bit words.
	Words
	// Chars is a sequence of characters decoded from UTF-16.
	Chars
)

// AllTypes lists every representation in the default preference order.
var AllTypes = []Type{Bytes, Words, Chars}

func (t Type) String() string {
	switch t {
	case Bytes:
		return "bytes"
	case Words:
		return "words"
	case Chars:
		return "chars"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Negotiate returns the first type of accepted that also appears in emitted.
// The consumer's list is scanned outer so its declared preference wins.
func Negotiate(accepted, emitted []Type) (Type, bool) {
	for _, want := range accepted {
		for _, have := range emitted {
			if want == have {
				return want, true
			}
		}
	}
	return 0, false
}

// Payload is the converted content of one chunk as handed to a consumer.
type Payload interface {
	// Type reports the representation of the payload.
	Type() Type
	// Len reports the number of elements (bytes, words or chars).
	Len() int
}

// ByteData is a Bytes payload.
type ByteData []byte

// WordData is a Words payload.
type WordData []uint16

// CharData is a Chars payload.
type CharData []rune

func (ByteData) Type() Type { return Bytes }
func (WordData) Type() Type { return Words }
func (CharData) Type() Type { return Chars }

func (d ByteData) Len() int { return len(d) }
func (d WordData) Len() int { return len(d) }
func (d CharData) Len() int { return len(d) }

// ByteLen returns the size of p in its raw byte form, the length AsBytes
// would produce.
func ByteLen(p Payload) int {
	switch d := p.(type) {
	case ByteData:
		return len(d)
	case WordData:
		return 2 * len(d)
	case CharData:
		n := 0
		for _, r := range d {
			// supplementary plane runes take a surrogate pair
			if r >= 0x10000 {
				n += 4
			} else {
				n += 2
			}
		}
		return n
	default:
		return 0
	}
}

// toWords reinterprets raw as big-endian words. An odd trailing byte is dropped.
func toWords(raw []byte) WordData {
	words := make(WordData, len(raw)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(raw[2*i:])
	}
	return words
}

// toChars decodes raw as UTF-16 (big-endian unless a BOM says otherwise).
// An odd trailing byte is dropped before decoding.
func toChars(raw []byte) (CharData, error) {
	raw = raw[:len(raw)&^1]
	utf8, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode utf-16: %w", err)
	}
	return CharData(string(utf8)), nil
}

// AsBytes converts any payload back to raw bytes. Words are written
// big-endian and chars are encoded as UTF-16BE without a BOM.
func AsBytes(p Payload) ([]byte, error) {
	switch d := p.(type) {
	case ByteData:
		return d, nil
	case WordData:
		out := make([]byte, 2*len(d))
		for i, w := range d {
			binary.BigEndian.PutUint16(out[2*i:], w)
		}
		return out, nil
	case CharData:
		out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(string(d)))
		if err != nil {
			return nil, fmt.Errorf("encode utf-16: %w", err)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported payload %T", p)
	}
}
