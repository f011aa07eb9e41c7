package characterization

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Binary result protocol errors. Both are fatal: a violated header or
// payload never yields a partial decode.
var (
	ErrMalformedHeader = errors.New("malformed result header")
	ErrSizeMismatch    = errors.New("result payload size mismatch")
)

// The result file starts with two big-endian int32 operand widths followed
// by a variant-specific body of big-endian int64 fields.
const (
	headerLen = 8
	wordLen   = 8
	countLen  = 4
)

// readHeader validates the two operand-width fields and returns the shared
// width. The harness only characterizes same-width operand pairs, so
// disagreeing widths mean the file is not one of ours.
func readHeader(buf []byte) (int, error) {
	if len(buf) < headerLen {
		return 0, fmt.Errorf("%w: %d bytes is too short for the width header", ErrSizeMismatch, len(buf))
	}
	awidth := int32(binary.BigEndian.Uint32(buf[0:4]))
	bwidth := int32(binary.BigEndian.Uint32(buf[4:8]))
	if awidth != bwidth {
		return 0, fmt.Errorf("%w: operand widths %d and %d disagree", ErrMalformedHeader, awidth, bwidth)
	}
	if awidth <= 0 {
		return 0, fmt.Errorf("%w: non-positive operand width %d", ErrMalformedHeader, awidth)
	}
	return int(awidth), nil
}

// DecodeExhaustive parses a full 2^w x 2^w error grid. The body must hold
// exactly 2^(2w) entries; they are laid out row-major with operand A as the
// row index.
func DecodeExhaustive(buf []byte, meta Meta) (*Exhaustive, error) {
	width, err := readHeader(buf)
	if err != nil {
		return nil, err
	}
	body := buf[headerLen:]
	if len(body)%wordLen != 0 {
		return nil, fmt.Errorf("%w: body length %d is not a whole number of entries", ErrSizeMismatch, len(body))
	}
	side := 1 << width
	if len(body)/wordLen != side*side {
		return nil, fmt.Errorf("%w: got %d entries, want %d for width %d",
			ErrSizeMismatch, len(body)/wordLen, side*side, width)
	}
	grid := make([][]int64, side)
	for a := 0; a < side; a++ {
		row := make([]int64, side)
		for b := 0; b < side; b++ {
			off := (a*side + b) * wordLen
			row[b] = int64(binary.BigEndian.Uint64(body[off : off+wordLen]))
		}
		grid[a] = row
	}
	meta.Width = width
	return &Exhaustive{Meta: meta, Errors: grid}, nil
}

// DecodeRandom2D parses variable-length sample groups. Each record is an
// int64 result key, an int32 sample count, and that many int64 samples; the
// cursor advances by the declared count, never by a fixed stride.
func DecodeRandom2D(buf []byte, meta Meta) (*Random2D, error) {
	width, err := readHeader(buf)
	if err != nil {
		return nil, err
	}
	data := make(map[int64][]int64)
	off := headerLen
	for off < len(buf) {
		if len(buf)-off < wordLen+countLen {
			return nil, fmt.Errorf("%w: truncated record header at offset %d", ErrSizeMismatch, off)
		}
		key := int64(binary.BigEndian.Uint64(buf[off : off+wordLen]))
		off += wordLen
		count := int32(binary.BigEndian.Uint32(buf[off : off+countLen]))
		off += countLen
		if count < 0 {
			return nil, fmt.Errorf("%w: negative sample count %d for key %d", ErrSizeMismatch, count, key)
		}
		if len(buf)-off < int(count)*wordLen {
			return nil, fmt.Errorf("%w: %d samples declared for key %d but only %d bytes remain",
				ErrSizeMismatch, count, key, len(buf)-off)
		}
		samples := make([]int64, count)
		for i := range samples {
			samples[i] = int64(binary.BigEndian.Uint64(buf[off : off+wordLen]))
			off += wordLen
		}
		data[key] = samples
	}
	meta.Width = width
	return &Random2D{Meta: meta, Errors: data}, nil
}

// DecodeRandom3D parses fixed 24-byte records of operand A, operand B, and
// the representative error observed for that pair.
func DecodeRandom3D(buf []byte, meta Meta) (*Random3D, error) {
	width, err := readHeader(buf)
	if err != nil {
		return nil, err
	}
	body := buf[headerLen:]
	const recordLen = 3 * wordLen
	if len(body)%recordLen != 0 {
		return nil, fmt.Errorf("%w: body length %d is not a whole number of records", ErrSizeMismatch, len(body))
	}
	data := make(map[OperandPair]int64, len(body)/recordLen)
	for off := 0; off < len(body); off += recordLen {
		a := int64(binary.BigEndian.Uint64(body[off : off+wordLen]))
		b := int64(binary.BigEndian.Uint64(body[off+wordLen : off+2*wordLen]))
		e := int64(binary.BigEndian.Uint64(body[off+2*wordLen : off+3*wordLen]))
		data[OperandPair{A: a, B: b}] = e
	}
	meta.Width = width
	return &Random3D{Meta: meta, Errors: data}, nil
}

// Decode dispatches to the decoder matching the characterization kind the
// harness declared for this run.
func Decode(kind Kind, buf []byte, meta Meta) (Result, error) {
	switch kind {
	case KindExhaustive:
		return DecodeExhaustive(buf, meta)
	case KindRandom2D:
		return DecodeRandom2D(buf, meta)
	case KindRandom3D:
		return DecodeRandom3D(buf, meta)
	default:
		return nil, fmt.Errorf("unknown characterization kind %q", kind)
	}
}
