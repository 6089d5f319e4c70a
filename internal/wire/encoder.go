package wire

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// WriteEngine is the write half of the data encoder. The Frame Encoder
// hands a flipped, ready-to-drain buffer to a WriteEngine and is done; it
// never blocks on the actual socket write.
type WriteEngine interface {
	Write(buf *Buffer, onComplete func(), onException func(error))
}

// FrameEncoder serializes one typed value into a single pooled buffer and
// hands it to a WriteEngine. Every Send* method follows the same five-step
// shape: size the packet, acquire a buffer, write the header and payload,
// flip, hand off. A failure at any step releases the buffer and reports
// the exception instead of writing.
type FrameEncoder struct {
	pool   *BufferPool
	engine WriteEngine
}

// NewFrameEncoder builds a FrameEncoder drawing buffers from pool and
// handing completed frames to engine.
func NewFrameEncoder(pool *BufferPool, engine WriteEngine) *FrameEncoder {
	return &FrameEncoder{pool: pool, engine: engine}
}

const headerSize = 1 /* START */ + 4 /* FRAME_LENGTH */ + DataTypeSize

// send is the shared assembly algorithm; payloadSize is known up front for
// every fixed-width type, and for String/ByteArray it includes their own
// 4-byte length prefix.
func (e *FrameEncoder) send(ctx context.Context, marker byte, payloadSize int, writePayload func(b *Buffer), onComplete func(), onException func(error)) {
	total := headerSize + payloadSize
	buf, err := e.pool.Acquire(ctx, total)
	if err != nil {
		onException(fmt.Errorf("wire: encode marker 0x%02x: %w", marker, err))
		return
	}

	frameLength := DataTypeSize + payloadSize
	if frameLength <= 0 {
		e.pool.Release(buf)
		onException(fmt.Errorf("wire: encode marker 0x%02x: %w", marker, ErrEncoderInternal))
		return
	}

	buf.WriteByte(StartMarker)
	var lenField [4]byte
	binary.BigEndian.PutUint32(lenField[:], uint32(frameLength))
	buf.Write(lenField[:])
	buf.WriteByte(marker)
	if writePayload != nil {
		writePayload(buf)
	}

	buf.Flip()
	e.engine.Write(buf, onComplete, onException)
}

// SendHeartbeat sends a payload-less keep-alive frame.
func (e *FrameEncoder) SendHeartbeat(ctx context.Context, onComplete func(), onException func(error)) {
	e.send(ctx, TypeHeartbeat, 0, nil, onComplete, onException)
}

// SendString sends a UTF-8 string value: a 4-byte big-endian length prefix
// followed by the encoded bytes.
func (e *FrameEncoder) SendString(ctx context.Context, s string, onComplete func(), onException func(error)) {
	if !utf8.ValidString(s) {
		onException(fmt.Errorf("wire: encode string: %w", ErrEncoderInternal))
		return
	}
	payloadSize := 4 + len(s)
	e.send(ctx, TypeString, payloadSize, func(b *Buffer) {
		var lenField [4]byte
		binary.BigEndian.PutUint32(lenField[:], uint32(len(s)))
		b.Write(lenField[:])
		b.Write([]byte(s))
	}, onComplete, onException)
}

// SendInt32 sends a 4-byte big-endian signed integer.
func (e *FrameEncoder) SendInt32(ctx context.Context, v int32, onComplete func(), onException func(error)) {
	e.send(ctx, TypeInt32, 4, func(b *Buffer) {
		var field [4]byte
		binary.BigEndian.PutUint32(field[:], uint32(v))
		b.Write(field[:])
	}, onComplete, onException)
}

// SendFloat32 sends a 4-byte IEEE-754 single-precision value.
func (e *FrameEncoder) SendFloat32(ctx context.Context, v float32, onComplete func(), onException func(error)) {
	e.send(ctx, TypeFloat32, 4, func(b *Buffer) {
		var field [4]byte
		binary.BigEndian.PutUint32(field[:], math.Float32bits(v))
		b.Write(field[:])
	}, onComplete, onException)
}

// SendFloat64 sends an 8-byte IEEE-754 double-precision value.
func (e *FrameEncoder) SendFloat64(ctx context.Context, v float64, onComplete func(), onException func(error)) {
	e.send(ctx, TypeFloat64, 8, func(b *Buffer) {
		var field [8]byte
		binary.BigEndian.PutUint64(field[:], math.Float64bits(v))
		b.Write(field[:])
	}, onComplete, onException)
}

// SendChar sends a single 2-byte big-endian UTF-16 code unit.
func (e *FrameEncoder) SendChar(ctx context.Context, v uint16, onComplete func(), onException func(error)) {
	e.send(ctx, TypeChar, 2, func(b *Buffer) {
		var field [2]byte
		binary.BigEndian.PutUint16(field[:], v)
		b.Write(field[:])
	}, onComplete, onException)
}

// SendByteArray sends a raw byte slice: a 4-byte big-endian length prefix
// followed by the bytes.
func (e *FrameEncoder) SendByteArray(ctx context.Context, data []byte, onComplete func(), onException func(error)) {
	payloadSize := 4 + len(data)
	e.send(ctx, TypeByteArray, payloadSize, func(b *Buffer) {
		var lenField [4]byte
		binary.BigEndian.PutUint32(lenField[:], uint32(len(data)))
		b.Write(lenField[:])
		b.Write(data)
	}, onComplete, onException)
}

// SendValue dispatches to the matching Send* method based on v.Kind. This
// is the single call site an OutboundPipeline needs; a Kind outside the
// defined constants is reported through onException as ErrEncoderInternal.
func (e *FrameEncoder) SendValue(ctx context.Context, v Value, onComplete func(), onException func(error)) {
	switch v.Kind {
	case KindHeartbeat:
		e.SendHeartbeat(ctx, onComplete, onException)
	case KindString:
		e.SendString(ctx, v.Str, onComplete, onException)
	case KindInt32:
		e.SendInt32(ctx, v.I32, onComplete, onException)
	case KindFloat32:
		e.SendFloat32(ctx, v.F32, onComplete, onException)
	case KindFloat64:
		e.SendFloat64(ctx, v.F64, onComplete, onException)
	case KindChar:
		e.SendChar(ctx, v.Char, onComplete, onException)
	case KindBytes:
		e.SendByteArray(ctx, v.Bytes, onComplete, onException)
	default:
		onException(fmt.Errorf("wire: send value: %w", ErrEncoderInternal))
	}
}
