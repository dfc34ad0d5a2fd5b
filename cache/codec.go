package cache

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encoder appends primitive values to a payload. Floats are written as their
// IEEE-754 bits so a round trip is exact.
type Encoder struct {
	buf []byte
}

func NewEncoder(sizeHint int) *Encoder {
	return &Encoder{buf: make([]byte, 0, sizeHint)}
}

func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Uvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

func (e *Encoder) Float64(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

func (e *Encoder) Bool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

func (e *Encoder) String(s string) {
	e.Uvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// OptString writes a nil-able string.
func (e *Encoder) OptString(s *string) {
	e.Bool(s != nil)
	if s != nil {
		e.String(*s)
	}
}

// Len writes a slice length that remembers whether the slice was nil, so
// decoded values compare equal to the originals.
func (e *Encoder) Len(n int, isNil bool) {
	if isNil {
		e.Uvarint(0)
		return
	}
	e.Uvarint(uint64(n) + 1)
}

// Decoder reads what an Encoder wrote. The first failure sticks: later calls
// return zero values and Err reports it.
type Decoder struct {
	buf []byte
	off int
	err error
}

func NewDecoder(payload []byte) *Decoder {
	return &Decoder{buf: payload}
}

func (d *Decoder) Err() error { return d.err }

func (d *Decoder) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: offset %d: %s", ErrDecode, d.off, fmt.Sprintf(format, args...))
	}
}

func (d *Decoder) remaining() int { return len(d.buf) - d.off }

func (d *Decoder) Uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.buf[d.off:])
	if n <= 0 {
		d.fail("bad uvarint")
		return 0
	}
	d.off += n
	return v
}

func (d *Decoder) Float64() float64 {
	if d.err != nil {
		return 0
	}
	if d.remaining() < 8 {
		d.fail("truncated float")
		return 0
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(d.buf[d.off:]))
	d.off += 8
	return v
}

func (d *Decoder) Bool() bool {
	if d.err != nil {
		return false
	}
	if d.remaining() < 1 {
		d.fail("truncated bool")
		return false
	}
	b := d.buf[d.off]
	d.off++
	switch b {
	case 0:
		return false
	case 1:
		return true
	default:
		d.fail("bad bool %d", b)
		return false
	}
}

func (d *Decoder) String() string {
	n := d.Uvarint()
	if d.err != nil {
		return ""
	}
	if n > uint64(d.remaining()) {
		d.fail("string of %d bytes overruns payload", n)
		return ""
	}
	s := string(d.buf[d.off : d.off+int(n)])
	d.off += int(n)
	return s
}

func (d *Decoder) OptString() *string {
	if !d.Bool() {
		return nil
	}
	s := d.String()
	if d.err != nil {
		return nil
	}
	return &s
}

// Len reads a length written by Encoder.Len. minSize is the smallest encoded
// size of one element; it bounds the length by what is left in the payload.
func (d *Decoder) Len(minSize int) (n int, isNil bool) {
	v := d.Uvarint()
	if d.err != nil {
		return 0, true
	}
	if v == 0 {
		return 0, true
	}
	count := v - 1
	if minSize < 1 {
		minSize = 1
	}
	if count > uint64(d.remaining()/minSize) {
		d.fail("length %d overruns payload", count)
		return 0, true
	}
	return int(count), false
}

// Finish reports the sticky error, or an error if bytes are left over.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrDecode, d.remaining())
	}
	return nil
}
