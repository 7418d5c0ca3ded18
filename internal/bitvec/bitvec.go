// Package bitvec provides an arbitrary-length unsigned bit sequence.
//
// Bit 0 is the least significant bit. A BitVector is interpreted as an
// unsigned integer of its current length.
package bitvec

import (
	"fmt"
	"math/bits"
	"strings"

	"fpgatrace/internal/common"
	"fpgatrace/internal/trc"
)

const wordBits = 64

// BitVector is a fixed-length bit sequence. The length only changes through
// SetLength, Fill and Append. Bits above the length are always zero in the
// backing words.
type BitVector struct {
	words []uint64
	n     int
}

func wordsFor(n int) int {
	return (n + wordBits - 1) / wordBits
}

// New returns a zero vector of length n.
func New(n int) *BitVector {
	if n < 0 {
		n = 0
	}
	return &BitVector{words: make([]uint64, wordsFor(n)), n: n}
}

// NewFilled returns a vector of length n with every bit set to bit.
func NewFilled(n int, bit bool) *BitVector {
	v := New(n)
	if bit {
		for i := range v.words {
			v.words[i] = ^uint64(0)
		}
		v.clearTail()
	}
	return v
}

// FromBit returns a one bit vector.
func FromBit(bit bool) *BitVector {
	v := New(1)
	if bit {
		v.words[0] = 1
	}
	return v
}

// FromUint64 returns a vector of length n holding the low n bits of val.
func FromUint64(n int, val uint64) *BitVector {
	v := New(n)
	if len(v.words) > 0 {
		v.words[0] = val
		v.clearTail()
	}
	return v
}

// FromBinary parses an MSB-first string of '0' and '1' characters. The
// result has one bit per character.
func FromBinary(s string) (*BitVector, error) {
	v := New(len(s))
	for i := 0; i < len(s); i++ {
		switch s[len(s)-1-i] {
		case '0':
		case '1':
			v.setBit(i)
		default:
			return nil, common.Errorf(trc.ErrInvalidParamVal, "invalid binary digit %q in %q", s[len(s)-1-i], s)
		}
	}
	return v, nil
}

// FromHex parses a hex string (no prefix) into a vector of length n. Set bits
// that do not fit in n bits are rejected; leading zero digits are allowed.
func FromHex(n int, s string) (*BitVector, error) {
	v := New(n)
	for i := 0; i < len(s); i++ {
		c := s[len(s)-1-i]
		var nib uint64
		switch {
		case c >= '0' && c <= '9':
			nib = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			nib = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			nib = uint64(c-'A') + 10
		default:
			return nil, common.Errorf(trc.ErrInvalidParamVal, "invalid hex digit %q in %q", c, s)
		}
		for b := 0; b < 4; b++ {
			if nib&(1<<b) == 0 {
				continue
			}
			idx := i*4 + b
			if idx >= n {
				return nil, common.Errorf(trc.ErrLength, "hex value %q does not fit in %d bits", s, n)
			}
			v.setBit(idx)
		}
	}
	return v, nil
}

func (v *BitVector) clearTail() {
	if r := v.n % wordBits; r != 0 {
		v.words[len(v.words)-1] &= (uint64(1) << r) - 1
	}
}

func (v *BitVector) setBit(i int) {
	v.words[i/wordBits] |= 1 << (i % wordBits)
}

func (v *BitVector) bit(i int) bool {
	return v.words[i/wordBits]&(1<<(i%wordBits)) != 0
}

func (v *BitVector) checkIndex(i int) {
	if i < 0 || i >= v.n {
		panic(fmt.Sprintf("bitvec: index %d out of range [0,%d)", i, v.n))
	}
}

// Len returns the number of bits.
func (v *BitVector) Len() int {
	return v.n
}

// IsEmpty reports whether the vector has length zero.
func (v *BitVector) IsEmpty() bool {
	return v.n == 0
}

// IsZero reports whether no bit is set.
func (v *BitVector) IsZero() bool {
	for _, w := range v.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Bit returns bit i. It panics if i is out of range.
func (v *BitVector) Bit(i int) bool {
	v.checkIndex(i)
	return v.bit(i)
}

// SetBit sets bit i to bit. It panics if i is out of range.
func (v *BitVector) SetBit(i int, bit bool) {
	v.checkIndex(i)
	if bit {
		v.setBit(i)
	} else {
		v.words[i/wordBits] &^= 1 << (i % wordBits)
	}
}

// MSB returns the most significant bit, false for an empty vector.
func (v *BitVector) MSB() bool {
	if v.n == 0 {
		return false
	}
	return v.bit(v.n - 1)
}

// HighestSetBit returns the index of the most significant set bit, or -1.
func (v *BitVector) HighestSetBit() int {
	for i := len(v.words) - 1; i >= 0; i-- {
		if v.words[i] != 0 {
			return i*wordBits + bits.Len64(v.words[i]) - 1
		}
	}
	return -1
}

// Byte returns bits [8i, 8i+8). Bits beyond the length read as zero.
func (v *BitVector) Byte(i int) byte {
	var b byte
	for k := 0; k < 8; k++ {
		idx := i*8 + k
		if idx < v.n && v.bit(idx) {
			b |= 1 << k
		}
	}
	return b
}

// SetByte writes b to bits [8i, 8i+8). Bits beyond the length are dropped.
func (v *BitVector) SetByte(i int, b byte) {
	for k := 0; k < 8; k++ {
		idx := i*8 + k
		if idx >= v.n {
			return
		}
		v.SetBit(idx, b&(1<<k) != 0)
	}
}

// Bytes returns the vector packed LSB first, ceil(len/8) bytes.
func (v *BitVector) Bytes() []byte {
	out := make([]byte, (v.n+7)/8)
	for i := range out {
		out[i] = v.Byte(i)
	}
	return out
}

// Uint64 returns the numeric value. Vectors longer than 64 bits fail.
func (v *BitVector) Uint64() (uint64, error) {
	if v.n > 64 {
		return 0, common.Errorf(trc.ErrLength, "vector of %d bits exceeds 64 bits", v.n)
	}
	if v.n == 0 {
		return 0, nil
	}
	return v.words[0], nil
}

// Int returns the numeric value. Vectors longer than 31 bits fail.
func (v *BitVector) Int() (int, error) {
	if v.n > 31 {
		return 0, common.Errorf(trc.ErrLength, "vector of %d bits exceeds 31 bits", v.n)
	}
	if v.n == 0 {
		return 0, nil
	}
	return int(v.words[0]), nil
}

// Copy returns an independent copy.
func (v *BitVector) Copy() *BitVector {
	c := &BitVector{words: make([]uint64, len(v.words)), n: v.n}
	copy(c.words, v.words)
	return c
}

// Equal reports whether both vectors have the same length and bits.
func (v *BitVector) Equal(o *BitVector) bool {
	if o == nil || v.n != o.n {
		return false
	}
	for i := range v.words {
		if v.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// SetLength truncates or zero-extends the vector in place.
func (v *BitVector) SetLength(n int) {
	if n < 0 {
		n = 0
	}
	if n <= v.n {
		v.n = n
		v.words = v.words[:wordsFor(n)]
		if len(v.words) > 0 {
			v.clearTail()
		}
		return
	}
	v.grow(n)
}

func (v *BitVector) grow(n int) {
	need := wordsFor(n)
	for len(v.words) < need {
		v.words = append(v.words, 0)
	}
	v.n = n
}

// Fill extends the vector in place to length n, new bits set to bit. A
// shorter n leaves the vector unchanged.
func (v *BitVector) Fill(n int, bit bool) {
	old := v.n
	if n <= old {
		return
	}
	v.grow(n)
	if bit {
		for i := old; i < n; i++ {
			v.setBit(i)
		}
	}
}

// Append adds one bit above the current most significant bit.
func (v *BitVector) Append(bit bool) {
	v.Fill(v.n+1, bit)
}

// Sub returns bits [start, stop) as a new vector. It panics if the range is
// invalid.
func (v *BitVector) Sub(start, stop int) *BitVector {
	if start < 0 || stop > v.n || start > stop {
		panic(fmt.Sprintf("bitvec: slice [%d:%d] out of range [0,%d]", start, stop, v.n))
	}
	r := New(stop - start)
	for i := start; i < stop; i++ {
		if v.bit(i) {
			r.setBit(i - start)
		}
	}
	return r
}

// Low returns the i least significant bits.
func (v *BitVector) Low(i int) *BitVector {
	return v.Sub(0, i)
}

// High returns the i most significant bits.
func (v *BitVector) High(i int) *BitVector {
	return v.Sub(v.n-i, v.n)
}

// Concat returns v with o placed above it; o becomes the high part.
func (v *BitVector) Concat(o *BitVector) *BitVector {
	r := v.Copy()
	r.grow(v.n + o.n)
	for i := 0; i < o.n; i++ {
		if o.bit(i) {
			r.setBit(v.n + i)
		}
	}
	return r
}

// Repeat returns k+1 copies of v concatenated. Negative k returns nil.
func (v *BitVector) Repeat(k int) *BitVector {
	if k < 0 {
		return nil
	}
	r := v.Copy()
	for i := 0; i < k; i++ {
		r = r.Concat(v)
	}
	return r
}

// SignExtend returns a copy extended to width bits by replicating the most
// significant bit. A vector already at least width bits long is copied
// unchanged.
func (v *BitVector) SignExtend(width int) *BitVector {
	r := v.Copy()
	r.Fill(width, v.MSB())
	return r
}

// binop combines v and o word by word over the common prefix. Bits of the
// longer operand above the shorter one's length come from tail.
func (v *BitVector) binop(o *BitVector, op func(a, b uint64) uint64, tail func(long bool) bool) *BitVector {
	short, long := v, o
	if v.n > o.n {
		short, long = o, v
	}
	r := New(long.n)
	for i := range short.words {
		r.words[i] = op(v.words[i], o.words[i])
	}
	if len(r.words) > 0 {
		r.clearTail()
	}
	// the word straddling short.n was computed against zero padding, redo it
	// bit by bit
	for i := short.n; i < long.n; i++ {
		if tail(long.bit(i)) {
			r.setBit(i)
		} else {
			r.words[i/wordBits] &^= 1 << (i % wordBits)
		}
	}
	return r
}

// And pads the shorter operand with zeros.
func (v *BitVector) And(o *BitVector) *BitVector {
	return v.binop(o, func(a, b uint64) uint64 { return a & b }, func(bool) bool { return false })
}

// Or copies the longer operand's high bits.
func (v *BitVector) Or(o *BitVector) *BitVector {
	return v.binop(o, func(a, b uint64) uint64 { return a | b }, func(l bool) bool { return l })
}

// Xor copies the longer operand's high bits.
func (v *BitVector) Xor(o *BitVector) *BitVector {
	return v.binop(o, func(a, b uint64) uint64 { return a ^ b }, func(l bool) bool { return l })
}

// Nand sets every bit above the shorter operand.
func (v *BitVector) Nand(o *BitVector) *BitVector {
	return v.binop(o, func(a, b uint64) uint64 { return ^(a & b) }, func(bool) bool { return true })
}

// Nor inverts the longer operand's high bits.
func (v *BitVector) Nor(o *BitVector) *BitVector {
	return v.binop(o, func(a, b uint64) uint64 { return ^(a | b) }, func(l bool) bool { return !l })
}

func (v *BitVector) Not() *BitVector {
	r := New(v.n)
	for i, w := range v.words {
		r.words[i] = ^w
	}
	if len(r.words) > 0 {
		r.clearTail()
	}
	return r
}

// AddIgnoreCarry returns v+o modulo 2^len. Both operands must have the same
// length.
func (v *BitVector) AddIgnoreCarry(o *BitVector) (*BitVector, error) {
	if v.n != o.n {
		return nil, common.Errorf(trc.ErrLength, "add of %d bit and %d bit vectors", v.n, o.n)
	}
	r := New(v.n)
	var carry uint64
	for i := range v.words {
		r.words[i], carry = bits.Add64(v.words[i], o.words[i], carry)
	}
	if len(r.words) > 0 {
		r.clearTail()
	}
	return r, nil
}

// Increment returns v+1, wrapping to zero.
func (v *BitVector) Increment() *BitVector {
	r := v.Copy()
	for i := range r.words {
		r.words[i]++
		if r.words[i] != 0 {
			break
		}
	}
	if len(r.words) > 0 {
		r.clearTail()
	}
	return r
}

// Decrement returns v-1, wrapping to all ones.
func (v *BitVector) Decrement() *BitVector {
	r := v.Copy()
	for i := range r.words {
		r.words[i]--
		if r.words[i] != ^uint64(0) {
			break
		}
	}
	if len(r.words) > 0 {
		r.clearTail()
	}
	return r
}

// Binary renders the vector MSB first with leading zeros.
func (v *BitVector) Binary() string {
	var sb strings.Builder
	sb.Grow(v.n)
	for i := v.n - 1; i >= 0; i-- {
		if v.bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

const hexDigits = "0123456789abcdef"

// Hex renders one lower case digit per nibble counted from bit 0. The top
// digit covers the remaining 1 to 3 bits when the length is not a multiple of
// four. Leading zeros are kept; an empty vector renders as "".
func (v *BitVector) Hex() string {
	nd := (v.n + 3) / 4
	out := make([]byte, nd)
	for d := 0; d < nd; d++ {
		var nib byte
		for k := 0; k < 4; k++ {
			idx := d*4 + k
			if idx < v.n && v.bit(idx) {
				nib |= 1 << k
			}
		}
		out[nd-1-d] = hexDigits[nib]
	}
	return string(out)
}

func (v *BitVector) String() string {
	return v.Binary()
}
