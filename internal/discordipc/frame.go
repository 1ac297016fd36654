package discordipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Frame opcodes of the Discord IPC protocol.
const (
	opHandshake uint32 = 0
	opFrame     uint32 = 1
	opClose     uint32 = 2
	opPing      uint32 = 3
	opPong      uint32 = 4
)

const (
	headerSize   = 8
	maxFrameSize = 1 << 20
)

// writeFrame encodes payload as JSON behind an opcode/length header.
func writeFrame(w io.Writer, op uint32, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	buf := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], op)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(body)))
	copy(buf[headerSize:], body)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// readFrame reads a single frame and returns its opcode and raw JSON body.
func readFrame(r io.Reader) (uint32, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("failed to read frame header: %w", err)
	}

	op := binary.LittleEndian.Uint32(header[0:4])
	size := binary.LittleEndian.Uint32(header[4:8])
	if size > maxFrameSize {
		return 0, nil, fmt.Errorf("frame too large: %d bytes", size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("failed to read frame body: %w", err)
	}
	return op, body, nil
}
