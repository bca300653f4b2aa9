package codec

import (
	"bytes"
	"fmt"
)

// TextCodec renders values as whitespace-separated tokens via fmt.Sprint
// and parses them back with fmt.Sscan, the wire-compatible rendering §9
// requires when a binding must interoperate with the source's
// stream-formatted variadic template: one space-separated token per
// value, in order. A value whose rendering is empty or contains
// whitespace does not round-trip: Decode sees a different token count
// and returns an error.
type TextCodec struct{}

func (c *TextCodec) Encode(values ...any) ([]byte, error) {
	var buf bytes.Buffer
	for i, v := range values {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprint(&buf, v)
	}
	return buf.Bytes(), nil
}

func (c *TextCodec) Decode(data []byte, targets ...any) error {
	if got := len(bytes.Fields(data)); got != len(targets) {
		return fmt.Errorf("codec: expected %d tokens, got %d", len(targets), got)
	}
	args := make([]any, len(targets))
	copy(args, targets)
	n, err := fmt.Sscan(string(data), args...)
	if err != nil {
		return err
	}
	if n != len(targets) {
		return fmt.Errorf("codec: expected %d tokens, scanned %d", len(targets), n)
	}
	return nil
}

func (c *TextCodec) Type() CodecType {
	return CodecTypeText
}
