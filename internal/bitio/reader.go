// Package bitio reads the tracer's bit-packed streams.
//
// Bits are consumed least significant first within each byte. Integer and
// vector reads place the earliest bit at bit 0 of the result. The prefix
// scanner used for selector codes builds its candidate the other way round,
// each new bit going in front of the ones already read.
package bitio

import (
	"fmt"
	"io"

	"fpgatrace/internal/bitvec"
	"fpgatrace/internal/common"
	"fpgatrace/internal/trc"
)

// MaxIntBits is the widest read ReadInt accepts.
const MaxIntBits = 31

// Reader is a sequential bit cursor over a byte source. It holds at most the
// one byte currently being consumed.
type Reader struct {
	src   io.ByteReader
	cur   byte
	avail int   // unread bits left in cur, taken from the low end
	pos   int64 // bits consumed so far
}

func NewReader(src io.ByteReader) *Reader {
	return &Reader{src: src}
}

// BitsRead returns the number of bits consumed since the reader was created.
func (r *Reader) BitsRead() int64 {
	return r.pos
}

// Aligned reports whether the cursor sits on a byte boundary.
func (r *Reader) Aligned() bool {
	return r.avail == 0
}

func (r *Reader) fill() error {
	b, err := r.src.ReadByte()
	if err != nil {
		return err
	}
	r.cur = b
	r.avail = 8
	return nil
}

// take returns up to n bits from the current byte, refilling it first when
// empty.
func (r *Reader) take(n int) (uint64, int, error) {
	if r.avail == 0 {
		if err := r.fill(); err != nil {
			return 0, 0, err
		}
	}
	k := n
	if k > r.avail {
		k = r.avail
	}
	v := uint64(r.cur>>(8-r.avail)) & (1<<k - 1)
	r.avail -= k
	r.pos += int64(k)
	return v, k, nil
}

func eofErr(got int, err error) error {
	if err == io.EOF && got > 0 {
		return io.ErrUnexpectedEOF
	}
	return err
}

// ReadInt reads n bits, 1 <= n <= 31. At end of stream it returns -1 and
// io.EOF, or io.ErrUnexpectedEOF if the stream ended part way through.
func (r *Reader) ReadInt(n int) (int, error) {
	if n < 1 || n > MaxIntBits {
		return -1, common.Errorf(trc.ErrInvalidParamVal, "bit count %d outside 1..%d", n, MaxIntBits)
	}
	var result uint64
	got := 0
	for got < n {
		v, k, err := r.take(n - got)
		if err != nil {
			return -1, eofErr(got, err)
		}
		result |= v << got
		got += k
	}
	return int(result), nil
}

// ReadVector reads n bits into a vector of length n. A zero length read
// consumes nothing. End of stream behaves as for ReadInt with a nil vector.
func (r *Reader) ReadVector(n int) (*bitvec.BitVector, error) {
	if n < 0 {
		return nil, common.Errorf(trc.ErrInvalidParamVal, "negative bit count %d", n)
	}
	out := bitvec.New(n)
	got := 0
	for got < n {
		v, k, err := r.take(n - got)
		if err != nil {
			return nil, eofErr(got, err)
		}
		for i := 0; i < k; i++ {
			if v&(1<<i) != 0 {
				out.SetBit(got+i, true)
			}
		}
		got += k
	}
	return out, nil
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (bool, error) {
	v, _, err := r.take(1)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// ReadPrefixCode reads one bit at a time, prepending '0' or '1' to the
// candidate codeword, until lookup accepts the candidate. It gives up with
// ErrTrcSelector after maxBits bits.
func (r *Reader) ReadPrefixCode(lookup func(code string) bool, maxBits int) (string, error) {
	start := r.pos
	buf := make([]byte, 0, 16)
	for len(buf) < maxBits {
		bit, err := r.ReadBit()
		if err != nil {
			return "", eofErr(len(buf), err)
		}
		c := byte('0')
		if bit {
			c = '1'
		}
		buf = append(buf, 0)
		copy(buf[1:], buf)
		buf[0] = c
		if lookup(string(buf)) {
			return string(buf), nil
		}
	}
	return "", common.NewErrorWithIdxMsg(trc.ErrSevError, trc.ErrTrcSelector, start,
		fmt.Sprintf("no codeword matched within %d bits", maxBits))
}
