// Package wire implements the fixed-width decimal framing primitives used
// by every socket in peerlink: the control-block/handshake fields of §4.1
// and §6, and the raw block transfer used for application payloads.
//
// It plays the role the teacher's protocol package plays for mini-RPC's
// binary header (io.ReadFull around a fixed-size prelude), but the wire
// format here is the spec's own: ASCII decimal, NUL-padded to a fixed
// field width, with no retry on short transfers — the caller classifies a
// short transfer as a framing failure rather than looping to fill it.
package wire

import (
	"bytes"
	"net"
	"strconv"

	"github.com/peerlink/peerlink/perr"
)

const (
	// FieldWidth is FW in the spec: 20 digits (room for a signed 64-bit
	// decimal) plus one NUL terminator slot.
	FieldWidth = 21

	// BlockSize is the fixed application-payload block size.
	BlockSize = 1024
)

// EncodeField renders v as ASCII decimal, NUL-padded to FieldWidth bytes.
func EncodeField(v int64) [FieldWidth]byte {
	var buf [FieldWidth]byte
	s := strconv.FormatInt(v, 10)
	copy(buf[:], s)
	return buf
}

// DecodeField parses a FieldWidth-byte NUL-padded decimal field.
func DecodeField(b []byte) (int64, error) {
	n := bytes.IndexByte(b, 0)
	if n < 0 {
		n = len(b)
	}
	return strconv.ParseInt(string(b[:n]), 10, 64)
}

// WriteField sends v as a single FieldWidth-byte write. A short write is
// classified Sending with the leak flag set.
func WriteField(conn net.Conn, v int64) error {
	buf := EncodeField(v)
	return writeExact(conn, buf[:])
}

// ReadField reads a single FieldWidth-byte field. A short read is
// classified Receiving with the leak flag set.
func ReadField(conn net.Conn) (int64, error) {
	buf, err := readExact(conn, FieldWidth)
	if err != nil {
		return 0, err
	}
	return DecodeField(buf)
}

// WriteBytes performs a single blocking send of b, used for block/trailer
// transfer where the caller already knows the exact length.
func WriteBytes(conn net.Conn, b []byte) error {
	return writeExact(conn, b)
}

// ReadBytes performs a single blocking receive of exactly n bytes.
func ReadBytes(conn net.Conn, n int) ([]byte, error) {
	return readExact(conn, n)
}

// WriteByte sends a single raw byte (used for the handshake's confirm /
// reject signal).
func WriteByte(conn net.Conn, b byte) error {
	return writeExact(conn, []byte{b})
}

// ReadByte reads a single raw byte.
func ReadByte(conn net.Conn) (byte, error) {
	b, err := readExact(conn, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func writeExact(conn net.Conn, b []byte) error {
	n, err := conn.Write(b)
	if err != nil {
		return perr.Classify(perr.Sending, err)
	}
	if n != len(b) {
		return perr.Leaked(perr.Sending)
	}
	return nil
}

func readExact(conn net.Conn, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := conn.Read(buf)
	if err != nil {
		return nil, perr.Classify(perr.Receiving, err)
	}
	if got != n {
		return nil, perr.Leaked(perr.Receiving)
	}
	return buf, nil
}
