package wire

import (
	"encoding/binary"
	"fmt"
)

// FrameConsumer receives a fully-framed (marker, payload) pair as the
// decoder finds one. Implemented by TypeDispatcher; kept as an interface so
// the decoder has no dependency on dispatch or callback machinery.
type FrameConsumer interface {
	Consume(marker byte, payload []byte)
}

// FrameDecoder is a stateful, resynchronizing parser. It holds no buffered
// bytes of its own between calls: the caller (the read engine) is
// responsible for carrying forward whatever trailing slice Step reports as
// unconsumed residual and prepending it to the next chunk of bytes read
// from the socket.
type FrameDecoder struct {
	maxFrameLength int32
}

// NewFrameDecoder builds a decoder that rejects any FRAME_LENGTH greater
// than maxFrameLength.
func NewFrameDecoder(maxFrameLength int32) *FrameDecoder {
	return &FrameDecoder{maxFrameLength: maxFrameLength}
}

// Step consumes as many complete frames as it can find in data, delivering
// each (marker, payload) pair to consumer in order. It returns the trailing
// slice of data that must be preserved and prepended to the next call (the
// "residual"), and a non-nil error only when the stream can no longer be
// trusted to resynchronize (ErrFrameNonPositive / ErrFrameOversize) — in
// that case the caller must close the connection; any bytes after the bad
// header are not meaningful and the returned residual is always nil on
// error.
//
// A malformed marker or inner payload is not decoder-fatal: payload_size
// bytes are always consumed regardless of what consumer.Consume does with
// them, so the stream stays in sync and Step keeps looping.
func (d *FrameDecoder) Step(data []byte, consumer FrameConsumer) ([]byte, error) {
	pos := 0
	for {
		advance, found, exhausted := seekStart(data[pos:])
		if !found {
			if exhausted {
				// Budget spent without finding a marker; the scanned run is
				// discarded, but bytes after it are unscanned and must be
				// preserved — they may still contain a marker.
				return data[pos+advance:], nil
			}
			// Ran out of data before the budget was spent: everything
			// remaining was genuinely scanned and is garbage.
			return nil, nil
		}

		markPos := pos + advance
		afterStart := markPos + 1
		if len(data)-afterStart < 4 {
			return data[markPos:], nil // header incomplete, await more data
		}

		frameLength := int32(binary.BigEndian.Uint32(data[afterStart : afterStart+4]))
		if frameLength <= 0 {
			return nil, fmt.Errorf("wire: frame_length=%d: %w", frameLength, ErrFrameNonPositive)
		}
		if frameLength > d.maxFrameLength {
			return nil, fmt.Errorf("wire: frame_length=%d exceeds max %d: %w", frameLength, d.maxFrameLength, ErrFrameOversize)
		}

		bodyStart := afterStart + 4
		need := int(frameLength) // DATA_TYPE_SIZE(1) + payload_size
		if len(data)-bodyStart < need {
			return data[markPos:], nil // payload incomplete, await more data
		}

		marker := data[bodyStart]
		payload := data[bodyStart+1 : bodyStart+need]
		consumer.Consume(marker, payload)

		pos = bodyStart + need
		if pos >= len(data) {
			return nil, nil
		}
		// loop: seek the next frame starting at pos, with a fresh garbage
		// tolerance budget.
	}
}

// seekStart scans up to MaxGarbageTolerance bytes of data for StartMarker.
//
//   - found: the marker sits at data[offset]; nothing before it needs to be
//     preserved, it was noise.
//   - exhausted (found==false): the full tolerance budget was scanned
//     without finding a marker; offset equals the budget, i.e. the number
//     of bytes the caller should discard before resuming the scan on
//     whatever comes after.
//   - neither found nor exhausted: data ran out before the budget did; all
//     of it was genuinely scanned and none of it needs to be kept.
func seekStart(data []byte) (offset int, found bool, exhausted bool) {
	bound := len(data)
	if bound > MaxGarbageTolerance {
		bound = MaxGarbageTolerance
	}
	for i := 0; i < bound; i++ {
		if data[i] == StartMarker {
			return i, true, false
		}
	}
	if bound == MaxGarbageTolerance {
		return bound, false, true
	}
	return 0, false, false
}
