// Package codec implements §9's "variadic typed send/receive" collaborator:
// the opaque encode(T…)→bytes / decode(bytes)→T… boundary the Connection
// core never reaches across. Connection.Send/Receive only ever see bytes;
// a codec is how a caller turns its own argument list into the bytes it
// hands to Send and back again on Receive.
//
// It plays the role the teacher's codec package plays for mini-RPC's
// RPCMessage framing, generalized from "one fixed envelope struct" to
// "an arbitrary list of caller-supplied values", per §9's note that the
// source's variadic template stream-formatted its arguments as
// whitespace-separated text.
package codec

// CodecType identifies which wire representation a Codec produces.
type CodecType byte

const (
	// CodecTypeText is one space-separated token per value, the
	// wire-compatible rendering §9 requires if a binding must interoperate
	// with the source's stream-formatted variadic template.
	CodecTypeText CodecType = 0
	// CodecTypeJSON marshals the value list as a JSON array, a
	// self-describing format new bindings are free to use when they don't
	// need wire compatibility with the source.
	CodecTypeJSON CodecType = 1
)

// Codec serializes a list of values to bytes and back. Implementations
// must round-trip: Decode(Encode(v1, ..., vn)) into pointers matching
// v1...vn's types recovers the original values.
type Codec interface {
	Encode(values ...any) ([]byte, error)
	Decode(data []byte, targets ...any) error
	Type() CodecType
}

// GetCodec is a factory function returning the codec for a given type.
func GetCodec(t CodecType) Codec {
	if t == CodecTypeJSON {
		return &JSONCodec{}
	}
	return &TextCodec{}
}
