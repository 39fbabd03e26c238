package textenc

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// DefaultCharset is assumed for strings that are not valid UTF-8.
const DefaultCharset = "ISO-8859-1"

// Normalizer rewrites strings into UTF-8.
type Normalizer struct {
	charset string
	enc     encoding.Encoding
}

// New returns a Normalizer decoding invalid UTF-8 input from charset. An empty
// charset selects DefaultCharset.
func New(charset string) (*Normalizer, error) {
	charset = strings.TrimSpace(charset)
	if charset == "" {
		charset = DefaultCharset
	}
	enc, err := Lookup(charset)
	if err != nil {
		return nil, err
	}
	return &Normalizer{charset: charset, enc: enc}, nil
}

// Lookup resolves an IANA charset name such as "ISO-8859-1" or "windows-1252".
func Lookup(charset string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(charset))
	if err != nil {
		return nil, fmt.Errorf("lookup charset %q: %w", charset, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q is not supported", charset)
	}
	return enc, nil
}

// Charset reports the source charset used for non UTF-8 input.
func (n *Normalizer) Charset() string {
	if n == nil {
		return DefaultCharset
	}
	return n.charset
}

// String returns s as UTF-8. Valid UTF-8 is returned unchanged.
func (n *Normalizer) String(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	if n == nil || n.enc == nil {
		return strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	out, err := n.enc.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return out
}

// Strings normalizes every element into a new slice.
func (n *Normalizer) Strings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = n.String(value)
	}
	return out
}

// CharsetReader satisfies xml.Decoder.CharsetReader.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := Lookup(label)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
