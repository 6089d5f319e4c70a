package wire

// Marker identifies the wire-level purpose of a frame: either the start
// marker (anchor for resynchronization) or a payload type tag.
type Marker = byte

const (
	// StartMarker anchors the beginning of every frame on the wire.
	StartMarker byte = 0x01

	// DataTypeSize is the fixed width, in bytes, of the DATA_TYPE field.
	DataTypeSize = 1

	// MaxGarbageTolerance bounds how many non-marker bytes the decoder
	// scans in one pass before yielding control back to the read loop.
	MaxGarbageTolerance = 8192
)

// Type markers for each payload kind carried in a frame's DATA_TYPE byte.
const (
	TypeHeartbeat  byte = 0x00
	TypeString     byte = 0x01
	TypeInt32      byte = 0x02
	TypeFloat32    byte = 0x03
	TypeFloat64    byte = 0x04
	TypeChar       byte = 0x05
	TypeByteArray  byte = 0x06
)

// Kind distinguishes the concrete case of a Value.
type Kind int

const (
	KindHeartbeat Kind = iota
	KindString
	KindInt32
	KindFloat32
	KindFloat64
	KindChar
	KindBytes
)

// Value is the closed sum type the wire format can carry: a single struct
// whose Kind field the encoder switches on, in place of a runtime type
// switch over an open set of message types. Every type the wire format
// carries has a Kind; a Value whose Kind is none of the constants above is
// rejected by FrameEncoder.SendValue with ErrEncoderInternal.
//
// Exactly one of the typed fields is meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	Str   string
	I32   int32
	F32   float32
	F64   float64
	Char  uint16
	Bytes []byte
}

// Heartbeat returns the payload-less keep-alive value.
func Heartbeat() Value { return Value{Kind: KindHeartbeat} }

// String wraps a UTF-8 string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Int32 wraps a 32-bit signed integer value.
func Int32(v int32) Value { return Value{Kind: KindInt32, I32: v} }

// Float32 wraps an IEEE-754 single-precision value.
func Float32(v float32) Value { return Value{Kind: KindFloat32, F32: v} }

// Float64 wraps an IEEE-754 double-precision value.
func Float64(v float64) Value { return Value{Kind: KindFloat64, F64: v} }

// Char wraps a single UTF-16 code unit.
func Char(v uint16) Value { return Value{Kind: KindChar, Char: v} }

// Bytes wraps a raw byte-array value.
func Bytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }
