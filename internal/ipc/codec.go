// Package ipc carries activation arguments from a follower process to the
// leader over a local Unix domain socket.
//
// Each hand-off is one connection carrying one message. The follower writes
// the encoded argument list and closes the connection; the leader reads to
// end-of-stream and decodes. A connection that closes without sending any
// bytes is a liveness probe and never reaches the activation handler.
//
// Wire format, version 1 (all integers big-endian):
//
//	byte    version
//	uint32  argument count
//	repeat  count times:
//	        uint32 length
//	        bytes  UTF-8 argument
package ipc

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/rescale/singleinstance/internal/constants"
	"github.com/rescale/singleinstance/internal/version"
)

const (
	headerSize = 1 + 4
	lengthSize = 4
)

// Encode serializes args into a single activation message.
func Encode(args []string) ([]byte, error) {
	size := headerSize
	for i, arg := range args {
		if !utf8.ValidString(arg) {
			return nil, fmt.Errorf("%w: argument %d is not valid UTF-8", ErrInvalidPayload, i)
		}
		size += lengthSize + len(arg)
		if size > constants.MaxActivationPayload {
			return nil, fmt.Errorf("%w: %d arguments exceed %d bytes", ErrPayloadTooLarge, len(args), constants.MaxActivationPayload)
		}
	}

	buf := make([]byte, 0, size)
	buf = append(buf, byte(version.ProtocolVersion))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(args)))
	for _, arg := range args {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(arg)))
		buf = append(buf, arg...)
	}
	return buf, nil
}

// Decode parses an activation message produced by Encode. The whole
// message must be consumed; trailing bytes are an error.
func Decode(data []byte) ([]string, error) {
	if len(data) > constants.MaxActivationPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d byte message is shorter than the header", ErrInvalidPayload, len(data))
	}
	if v := data[0]; v != version.ProtocolVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, v, version.ProtocolVersion)
	}

	count := binary.BigEndian.Uint32(data[1:headerSize])
	rest := data[headerSize:]

	// Every argument needs at least its length prefix.
	if uint64(count)*lengthSize > uint64(len(rest)) {
		return nil, fmt.Errorf("%w: count %d does not fit in %d bytes", ErrInvalidPayload, count, len(rest))
	}

	args := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(rest) < lengthSize {
			return nil, fmt.Errorf("%w: argument %d: truncated length", ErrInvalidPayload, i)
		}
		n := binary.BigEndian.Uint32(rest[:lengthSize])
		rest = rest[lengthSize:]
		if uint64(n) > uint64(len(rest)) {
			return nil, fmt.Errorf("%w: argument %d: length %d exceeds remaining %d bytes", ErrInvalidPayload, i, n, len(rest))
		}
		arg := rest[:n]
		if !utf8.Valid(arg) {
			return nil, fmt.Errorf("%w: argument %d is not valid UTF-8", ErrInvalidPayload, i)
		}
		args = append(args, string(arg))
		rest = rest[n:]
	}

	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidPayload, len(rest))
	}
	return args, nil
}
