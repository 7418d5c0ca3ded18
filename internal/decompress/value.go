// Package decompress turns the bit-packed event stream of a configured tracer
// back into rows of field values.
package decompress

import (
	"fpgatrace/internal/bitvec"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/config"
	"fpgatrace/internal/trc"
)

// FieldDecompressor undoes the compression of one port field for one lane.
// It remembers the last decoded value for the whole run.
type FieldDecompressor struct {
	comp  config.Compression
	width int
	last  *bitvec.BitVector
}

func NewFieldDecompressor(comp config.Compression, width int) *FieldDecompressor {
	return &FieldDecompressor{comp: comp, width: width, last: bitvec.New(width)}
}

func (d *FieldDecompressor) Width() int {
	return d.width
}

// Last returns a copy of the value the next delta applies to.
func (d *FieldDecompressor) Last() *bitvec.BitVector {
	return d.last.Copy()
}

// Decode expands a compressed input to the full field width.
func (d *FieldDecompressor) Decode(in *bitvec.BitVector) (*bitvec.BitVector, error) {
	if in.Len() > d.width {
		return nil, errs.Errorf(trc.ErrTrcFieldLength, "%s input of %d bits for a %d bit field", d.comp, in.Len(), d.width)
	}

	switch d.comp {
	case config.CompressionNone:
		return in, nil

	case config.CompressionTrim:
		if in.IsEmpty() {
			return nil, errs.Errorf(trc.ErrTrcFieldLength, "empty trim input for a %d bit field", d.width)
		}
		return in.SignExtend(d.width), nil

	case config.CompressionDiff:
		if in.IsEmpty() {
			return d.last.Copy(), nil
		}
		if in.Len() == d.width {
			d.last = in.Copy()
			return in, nil
		}
		sum, err := d.last.AddIgnoreCarry(in.SignExtend(d.width))
		if err != nil {
			return nil, err
		}
		d.last = sum
		return sum.Copy(), nil

	case config.CompressionXor:
		if in.IsEmpty() {
			return d.last.Copy(), nil
		}
		v := in.Concat(d.last.Sub(in.Len(), d.width))
		d.last = v
		return v.Copy(), nil
	}
	return nil, errs.Errorf(trc.ErrInvalidParamVal, "compression %d", int(d.comp))
}
