package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Receiver is notified of each value the dispatcher successfully parses out
// of a frame payload. It is the seam internal/pipeline's InboundPipeline
// sits behind; that pipeline holds the atomically-replaceable callback so
// it can be swapped safely while a connection is live.
type Receiver interface {
	Receive(v Value)
}

// ReceiverFunc adapts a plain function to Receiver.
type ReceiverFunc func(Value)

// Receive implements Receiver.
func (f ReceiverFunc) Receive(v Value) { f(v) }

// TypeDispatcher turns a (marker, payload) pair handed to it by FrameDecoder
// into a typed Value and forwards it to a Receiver. It implements
// FrameConsumer so a FrameDecoder can call it directly.
//
// An unknown marker, a non-empty heartbeat payload, a length prefix that
// does not match the bytes after it, or invalid UTF-8 is
// ErrProtocolViolation; a fixed-width field whose payload is not exactly
// its width, or a length-prefixed payload shorter than its 4-byte prefix,
// is ErrProtocolIncomplete. Both are scoped to the single frame and
// reported through OnError rather than closing the connection — the
// decoder has already consumed exactly payload_size bytes, so the stream
// stays in sync regardless.
type TypeDispatcher struct {
	Receiver Receiver
	OnError  func(marker byte, err error)
}

// NewTypeDispatcher builds a dispatcher delivering parsed values to recv and
// reporting per-frame parse failures to onError.
func NewTypeDispatcher(recv Receiver, onError func(marker byte, err error)) *TypeDispatcher {
	return &TypeDispatcher{Receiver: recv, OnError: onError}
}

// Consume implements FrameConsumer.
func (d *TypeDispatcher) Consume(marker byte, payload []byte) {
	v, err := parsePayload(marker, payload)
	if err != nil {
		if d.OnError != nil {
			d.OnError(marker, err)
		}
		return
	}
	if d.Receiver != nil {
		d.Receiver.Receive(v)
	}
}

func parsePayload(marker byte, payload []byte) (Value, error) {
	switch marker {
	case TypeHeartbeat:
		if len(payload) != 0 {
			return Value{}, fmt.Errorf("wire: heartbeat payload length %d: %w", len(payload), ErrProtocolViolation)
		}
		return Heartbeat(), nil

	case TypeString:
		s, err := readLengthPrefixed(payload)
		if err != nil {
			return Value{}, err
		}
		if !utf8.Valid(s) {
			return Value{}, fmt.Errorf("wire: string payload: %w", ErrProtocolViolation)
		}
		return String(string(s)), nil

	case TypeInt32:
		if len(payload) != 4 {
			return Value{}, fmt.Errorf("wire: int32 payload length %d: %w", len(payload), ErrProtocolIncomplete)
		}
		return Int32(int32(binary.BigEndian.Uint32(payload))), nil

	case TypeFloat32:
		if len(payload) != 4 {
			return Value{}, fmt.Errorf("wire: float32 payload length %d: %w", len(payload), ErrProtocolIncomplete)
		}
		return Float32(math.Float32frombits(binary.BigEndian.Uint32(payload))), nil

	case TypeFloat64:
		if len(payload) != 8 {
			return Value{}, fmt.Errorf("wire: float64 payload length %d: %w", len(payload), ErrProtocolIncomplete)
		}
		return Float64(math.Float64frombits(binary.BigEndian.Uint64(payload))), nil

	case TypeChar:
		if len(payload) != 2 {
			return Value{}, fmt.Errorf("wire: char payload length %d: %w", len(payload), ErrProtocolIncomplete)
		}
		return Char(binary.BigEndian.Uint16(payload)), nil

	case TypeByteArray:
		b, err := readLengthPrefixed(payload)
		if err != nil {
			return Value{}, err
		}
		return Bytes(append([]byte(nil), b...)), nil

	default:
		return Value{}, fmt.Errorf("wire: unknown marker 0x%02x: %w", marker, ErrProtocolViolation)
	}
}

// readLengthPrefixed validates and slices off a 4-byte big-endian length
// prefix shared by String and ByteArray payloads.
func readLengthPrefixed(payload []byte) ([]byte, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("wire: length-prefixed payload too short (%d bytes): %w", len(payload), ErrProtocolIncomplete)
	}
	n := binary.BigEndian.Uint32(payload)
	rest := payload[4:]
	if uint64(len(rest)) != uint64(n) {
		return nil, fmt.Errorf("wire: length-prefixed payload declares %d, has %d: %w", n, len(rest), ErrProtocolViolation)
	}
	return rest, nil
}
