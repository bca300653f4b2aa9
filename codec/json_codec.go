package codec

import "encoding/json"

// JSONCodec marshals the value list as a JSON array. Pros: self-describing,
// cross-language, easy to debug. Cons: larger payload than TextCodec for
// simple scalar argument lists.
type JSONCodec struct{}

func (c *JSONCodec) Encode(values ...any) ([]byte, error) {
	return json.Marshal(values)
}

func (c *JSONCodec) Decode(data []byte, targets ...any) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for i, t := range targets {
		if i >= len(raw) {
			break
		}
		if err := json.Unmarshal(raw[i], t); err != nil {
			return err
		}
	}
	return nil
}

func (c *JSONCodec) Type() CodecType {
	return CodecTypeJSON
}
