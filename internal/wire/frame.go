package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// HeaderLen is the fixed 5-byte frame header: len(2) + proto(1) + type(2).
const HeaderLen = 5

// MaxPayloadLen bounds a single frame's payload, guarding against a
// malicious or corrupt length prefix forcing an unbounded allocation. A
// game-state map for a full 9-seat table runs a few hundred bytes;
// 32 KiB leaves generous headroom while still catching a garbage
// length prefix well before the u16 ceiling.
const MaxPayloadLen = 32 * 1024

var (
	// ErrShortBuffer is returned by ReadFrame when the buffer holds less
	// than a whole frame (header or payload); callers should keep
	// reading and retry.
	ErrShortBuffer = errors.New("wire: incomplete frame")
	// ErrPayloadTooLarge flags a declared length outside the protocol's
	// bound; callers MUST treat this as a ProtocolError and close the
	// connection.
	ErrPayloadTooLarge = errors.New("wire: payload exceeds maximum frame size")
	// ErrBadProtocol flags a frame whose proto byte doesn't match
	// ProtocolVersion.
	ErrBadProtocol = errors.New("wire: unsupported protocol byte")
)

// Frame is one decoded packet: its type code and raw CBOR-map payload.
type Frame struct {
	Type    uint16
	Payload []byte
}

// Encode serializes a frame: [len:u16 BE][proto:u8][type:u16 BE][payload].
// len counts the whole packet, header included.
func Encode(typ uint16, payload []byte) ([]byte, error) {
	total := HeaderLen + len(payload)
	if len(payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLarge
	}
	buf := make([]byte, total)
	binary.BigEndian.PutUint16(buf[0:2], uint16(total))
	buf[2] = ProtocolVersion
	binary.BigEndian.PutUint16(buf[3:5], typ)
	copy(buf[HeaderLen:], payload)
	return buf, nil
}

// ReadFrame attempts to decode a single frame from the front of buf. It
// returns the frame, the number of bytes consumed, and ErrShortBuffer if
// buf does not yet hold a complete frame — the caller should read more
// and retry with the same accumulated buffer.
func ReadFrame(buf []byte) (Frame, int, error) {
	if len(buf) < HeaderLen {
		return Frame{}, 0, ErrShortBuffer
	}
	total := int(binary.BigEndian.Uint16(buf[0:2]))
	if total < HeaderLen || total-HeaderLen > MaxPayloadLen {
		return Frame{}, 0, ErrPayloadTooLarge
	}
	if len(buf) < total {
		return Frame{}, 0, ErrShortBuffer
	}
	if buf[2] != ProtocolVersion {
		return Frame{}, 0, ErrBadProtocol
	}
	typ := binary.BigEndian.Uint16(buf[3:5])
	payload := make([]byte, total-HeaderLen)
	copy(payload, buf[HeaderLen:total])
	return Frame{Type: typ, Payload: payload}, total, nil
}

// HandshakeRequestLen is the fixed 4-byte pre-framing handshake the
// client sends before any framed packet: [len=0x0002][version u16 BE].
const HandshakeRequestLen = 4

// ParseHandshake validates the client's 4-byte handshake and reports
// whether its declared protocol version is supported.
func ParseHandshake(buf []byte) (ok bool, err error) {
	if len(buf) < HandshakeRequestLen {
		return false, ErrShortBuffer
	}
	declaredLen := binary.BigEndian.Uint16(buf[0:2])
	version := binary.BigEndian.Uint16(buf[2:4])
	if declaredLen != 0x0002 {
		return false, ErrBadProtocol
	}
	return version == uint16(ProtocolVersion), nil
}

// EncodeHandshakeReply builds the server's 3-byte handshake reply:
// [len=0x0001][code]. code 0 accepts, 1 rejects.
func EncodeHandshakeReply(accepted bool) []byte {
	code := byte(1)
	if accepted {
		code = 0
	}
	return []byte{0x00, 0x01, code}
}

// WriteFrame is a convenience wrapper for handlers writing directly to a
// net.Conn-like sink rather than a per-connection buffer.
func WriteFrame(w io.Writer, typ uint16, payload []byte) error {
	buf, err := Encode(typ, payload)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
