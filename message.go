package usp

import (
	"encoding/binary"
	"fmt"
)

// Binary wire layout:
//
//	u32be payload size
//	u16be path length, path bytes
//	u8    message type
//	u16be request id length, request id bytes
//	payload bytes
//
// The header size is fully determined by the constructor arguments, so
// the backing buffer is allocated once with the header region reserved
// in front of the payload. Data() exposes the payload region for the
// caller to fill in place; Serialize() writes the header into the
// reserved region and returns the whole buffer without copying the
// payload.

const (
	maxPathLength      = 1 << 16
	maxRequestIDLength = 1 << 16
)

// BinaryMessage is a single framed binary message (header + payload).
type BinaryMessage struct {
	path       string
	msgType    MessageType
	requestID  string
	headerSize int
	buf        []byte
}

// NewBinaryMessage allocates a message whose payload region holds
// payloadSize bytes. The caller fills the payload through Data before
// calling Serialize.
func NewBinaryMessage(payloadSize int, path string, msgType MessageType, requestID string) (*BinaryMessage, error) {
	if payloadSize < 0 {
		return nil, NewError(ErrorStatusConfiguration, "payload size must not be negative")
	}
	if len(path) >= maxPathLength {
		return nil, NewError(ErrorStatusConfiguration, "message path too long")
	}
	if len(requestID) >= maxRequestIDLength {
		return nil, NewError(ErrorStatusConfiguration, "request id too long")
	}

	headerSize := 4 + 2 + len(path) + 1 + 2 + len(requestID)
	return &BinaryMessage{
		path:       path,
		msgType:    msgType,
		requestID:  requestID,
		headerSize: headerSize,
		buf:        make([]byte, headerSize+payloadSize),
	}, nil
}

// Data returns the writable payload region of the message. The slice
// stays valid across Serialize; the codec never mutates payload bytes,
// only prefixes them.
func (m *BinaryMessage) Data() []byte {
	return m.buf[m.headerSize:]
}

// Path returns the message path.
func (m *BinaryMessage) Path() string {
	return m.path
}

// Type returns the message type tag.
func (m *BinaryMessage) Type() MessageType {
	return m.msgType
}

// RequestID returns the request id carried in the header.
func (m *BinaryMessage) RequestID() string {
	return m.requestID
}

// PayloadSize returns the payload size in bytes.
func (m *BinaryMessage) PayloadSize() int {
	return len(m.buf) - m.headerSize
}

// Serialize produces the wire form of the message and its total length.
// The returned buffer is header followed by payload; the payload region
// is the same memory returned by Data, not a copy.
func (m *BinaryMessage) Serialize() ([]byte, int) {
	h := m.buf[:m.headerSize]
	binary.BigEndian.PutUint32(h[0:4], uint32(m.PayloadSize()))
	binary.BigEndian.PutUint16(h[4:6], uint16(len(m.path)))
	off := 6 + copy(h[6:], m.path)
	h[off] = byte(m.msgType)
	off++
	binary.BigEndian.PutUint16(h[off:off+2], uint16(len(m.requestID)))
	off += 2
	copy(h[off:], m.requestID)
	return m.buf, len(m.buf)
}

// ParseBinaryMessage decodes a serialized frame. The returned message
// aliases data; its payload is the payload region of the input.
func ParseBinaryMessage(data []byte) (*BinaryMessage, error) {
	if len(data) < 4+2+1+2 {
		return nil, fmt.Errorf("usp: frame too short: %d bytes", len(data))
	}
	payloadSize := int(binary.BigEndian.Uint32(data[0:4]))
	pathLen := int(binary.BigEndian.Uint16(data[4:6]))
	off := 6
	if len(data) < off+pathLen+1+2 {
		return nil, fmt.Errorf("usp: frame truncated in path")
	}
	path := string(data[off : off+pathLen])
	off += pathLen
	msgType := MessageType(data[off])
	off++
	idLen := int(binary.BigEndian.Uint16(data[off : off+2]))
	off += 2
	if len(data) < off+idLen+payloadSize {
		return nil, fmt.Errorf("usp: frame truncated in payload")
	}
	requestID := string(data[off : off+idLen])
	off += idLen

	return &BinaryMessage{
		path:       path,
		msgType:    msgType,
		requestID:  requestID,
		headerSize: off,
		buf:        data[:off+payloadSize],
	}, nil
}
