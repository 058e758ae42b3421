package platform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrRender is returned when a document cannot be serialized.
var ErrRender = errors.New("render document failed")

const indent = "  "

// Compact renders v on a single line with ", " and ": " separators.
// HTML characters are left unescaped; non-ASCII is written as \uXXXX.
func Compact(v any) ([]byte, error) {
	raw, err := encode(v, false)
	if err != nil {
		return nil, err
	}
	return spaceSeparators(raw), nil
}

// Indented renders v with two spaces per nesting level and no trailing newline.
// Non-ASCII is written as \uXXXX.
func Indented(v any) ([]byte, error) {
	return encode(v, true)
}

func encode(v any, indented bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indented {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return escapeNonASCII(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// escapeNonASCII rewrites every non-ASCII rune as a lowercase \uXXXX escape,
// using a surrogate pair above the BMP. Input must be valid UTF-8, which the
// encoder guarantees. Non-ASCII only occurs inside string literals.
func escapeNonASCII(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] < utf8.RuneSelf {
		i++
	}
	if i == len(b) {
		return b
	}

	out := make([]byte, i, len(b)+len(b)/2)
	copy(out, b[:i])
	for i < len(b) {
		if c := b[i]; c < utf8.RuneSelf {
			out = append(out, c)
			i++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		i += size
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			out = fmt.Appendf(out, `\u%04x\u%04x`, r1, r2)
			continue
		}
		out = fmt.Appendf(out, `\u%04x`, r)
	}
	return out
}

// DecodePath maps each byte of a raw request path to the code point with the
// same value (ISO-8859-1), so arbitrary bytes survive JSON encoding and come
// back out as \u00XX escapes.
func DecodePath(raw string) string {
	for i := 0; i < len(raw); i++ {
		if raw[i] >= utf8.RuneSelf {
			return decodeLatin1(raw)
		}
	}
	return raw
}

func decodeLatin1(raw string) string {
	runes := make([]rune, len(raw))
	for i := 0; i < len(raw); i++ {
		runes[i] = rune(raw[i])
	}
	return string(runes)
}

// spaceSeparators inserts a space after every ',' and ':' that sits outside a
// string literal. Input must be compact JSON.
func spaceSeparators(b []byte) []byte {
	out := make([]byte, 0, len(b)+len(b)/4)
	inString, escaped := false, false
	for _, c := range b {
		out = append(out, c)
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == ',' || c == ':':
			out = append(out, ' ')
		}
	}
	return out
}

// Bodies holds the serialized constant responses.
type Bodies struct {
	Health  []byte
	Info    []byte
	Catalog []byte
}

// Render serializes the three constant documents: health compact, info and
// catalog indented.
func Render() (Bodies, error) {
	var (
		b   Bodies
		err error
	)
	if b.Health, err = Compact(Health()); err != nil {
		return Bodies{}, err
	}
	if b.Info, err = Indented(Info()); err != nil {
		return Bodies{}, err
	}
	if b.Catalog, err = Indented(Catalog()); err != nil {
		return Bodies{}, err
	}
	return b, nil
}

// MustRender is Render for package-level setup. The documents are fixed, so a
// failure is a programming error.
func MustRender() Bodies {
	b, err := Render()
	if err != nil {
		panic(err)
	}
	return b
}
