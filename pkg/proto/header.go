package proto

import "encoding/binary"

// encodeFrame lays out a complete wire frame: 4-byte header followed by the
// payload, so a single RingBuffer.Write call enqueues it atomically (the
// ring never exposes a partial frame to the reader, matching spec.md §4.1's
// "a producer either writes the complete frame or nothing").
func encodeFrame(op Opcode, payload []byte) []byte {
	frame := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint16(frame[0:], uint16(op))
	binary.LittleEndian.PutUint16(frame[2:], uint16(len(payload)))
	copy(frame[headerSize:], payload)
	return frame
}

func decodeHeader(b []byte) Header {
	return Header{
		Opcode:       Opcode(binary.LittleEndian.Uint16(b[0:])),
		PayloadBytes: binary.LittleEndian.Uint16(b[2:]),
	}
}
