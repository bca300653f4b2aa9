package conn

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/peerlink/peerlink/wire"
)

// encodeControl builds the 2*FieldWidth-byte control block "<full> <rem>"
// described in §4.5/§6: a single space-separated text field, NUL-padded
// to fill the fixed block rather than two independently padded sub-fields.
func encodeControl(full, rem int) []byte {
	s := fmt.Sprintf("%d %d", full, rem)
	buf := make([]byte, 2*wire.FieldWidth)
	copy(buf, s)
	return buf
}

// decodeControl parses a control block, reading full before the first
// space and rem after it.
func decodeControl(buf []byte) (full, rem int, err error) {
	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		n = len(buf)
	}
	parts := bytes.SplitN(buf[:n], []byte(" "), 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("conn: malformed control block %q", buf[:n])
	}
	full64, err := strconv.Atoi(string(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("conn: malformed control block full field: %w", err)
	}
	rem64, err := strconv.Atoi(string(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("conn: malformed control block rem field: %w", err)
	}
	return full64, rem64, nil
}
