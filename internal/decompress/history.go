package decompress

import (
	"fpgatrace/internal/bitvec"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/trc"
)

// DecodeLS expands an LS encoded branch history field. The top bit selects
// the form.
//
// Short form (top bit 0): the highest set bit below the flag terminates the
// payload, which is everything under it.
//
// Long form (top bit 1): the bit below the flag is repeated c+1 times, where c
// is the unsigned value of the remaining low bits.
func DecodeLS(field *bitvec.BitVector) (*bitvec.BitVector, error) {
	width := field.Len()
	if width < 2 {
		return nil, errs.Errorf(trc.ErrTrcLSEncoding, "%d bit history field", width)
	}

	if !field.Bit(width - 1) {
		for i := width - 2; i >= 0; i-- {
			if field.Bit(i) {
				return field.Sub(0, i), nil
			}
		}
		return nil, errs.Errorf(trc.ErrTrcLSEncoding, "no terminator in %s", field.Binary())
	}

	v := field.Bit(width - 2)
	count, err := field.Sub(0, width-2).Uint64()
	if err != nil {
		return nil, err
	}
	return bitvec.NewFilled(int(count)+1, v), nil
}

// truncateHistory drops the zero bits above the highest set bit. A zero
// field is returned unchanged.
func truncateHistory(field *bitvec.BitVector) *bitvec.BitVector {
	hi := field.HighestSetBit()
	if hi < 0 {
		return field
	}
	return field.Sub(0, hi+1)
}
