package decompress

import (
	"errors"
	"testing"

	"fpgatrace/internal/bitvec"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/config"
	"fpgatrace/internal/trc"
)

func bin(t *testing.T, s string) *bitvec.BitVector {
	t.Helper()
	v, err := bitvec.FromBinary(s)
	if err != nil {
		t.Fatalf("FromBinary(%q): %v", s, err)
	}
	return v
}

// feed decodes each input in turn and returns the binary renderings.
func feed(t *testing.T, d *FieldDecompressor, inputs ...string) []string {
	t.Helper()
	var out []string
	for _, in := range inputs {
		v, err := d.Decode(bin(t, in))
		if err != nil {
			t.Fatalf("Decode(%q): %v", in, err)
		}
		out = append(out, v.Binary())
	}
	return out
}

func TestFieldDecompressor(t *testing.T) {
	tests := []struct {
		name   string
		comp   config.Compression
		width  int
		inputs []string
		want   []string
		last   string
	}{
		{
			name:   "diff adds sign extended delta",
			comp:   config.CompressionDiff,
			width:  4,
			inputs: []string{"0011", "01"},
			want:   []string{"0011", "0100"},
			last:   "0100",
		},
		{
			name:   "diff negative delta",
			comp:   config.CompressionDiff,
			width:  4,
			inputs: []string{"0100", "11"},
			want:   []string{"0100", "0011"},
			last:   "0011",
		},
		{
			name:   "diff wraps",
			comp:   config.CompressionDiff,
			width:  4,
			inputs: []string{"1111", "01"},
			want:   []string{"1111", "0000"},
			last:   "0000",
		},
		{
			name:   "diff empty repeats last",
			comp:   config.CompressionDiff,
			width:  4,
			inputs: []string{"1001", ""},
			want:   []string{"1001", "1001"},
			last:   "1001",
		},
		{
			name:   "xor replaces low bits",
			comp:   config.CompressionXor,
			width:  4,
			inputs: []string{"1010", "11"},
			want:   []string{"1010", "1011"},
			last:   "1011",
		},
		{
			name:   "xor empty repeats last",
			comp:   config.CompressionXor,
			width:  8,
			inputs: []string{"10100101", ""},
			want:   []string{"10100101", "10100101"},
			last:   "10100101",
		},
		{
			name:   "trim sign extends",
			comp:   config.CompressionTrim,
			width:  6,
			inputs: []string{"101", "011"},
			want:   []string{"111101", "000011"},
			last:   "000000",
		},
		{
			name:   "none passes through",
			comp:   config.CompressionNone,
			width:  8,
			inputs: []string{"101"},
			want:   []string{"101"},
			last:   "00000000",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewFieldDecompressor(tc.comp, tc.width)
			got := feed(t, d, tc.inputs...)
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("input %d (%s): got %s, want %s", i, tc.inputs[i], got[i], tc.want[i])
				}
			}
			if l := d.Last().Binary(); l != tc.last {
				t.Errorf("last = %s, want %s", l, tc.last)
			}
		})
	}
}

func TestFieldDecompressorResultIsNotShared(t *testing.T) {
	d := NewFieldDecompressor(config.CompressionDiff, 4)
	v, err := d.Decode(bin(t, "0001"))
	if err != nil {
		t.Fatal(err)
	}
	v.SetBit(3, true)
	if l := d.Last().Binary(); l != "0001" {
		t.Errorf("caller write leaked into state: %s", l)
	}
}

func TestFieldDecompressorOverlength(t *testing.T) {
	for _, comp := range []config.Compression{config.CompressionDiff, config.CompressionXor, config.CompressionTrim} {
		d := NewFieldDecompressor(comp, 4)
		if _, err := d.Decode(bin(t, "10101")); !errors.Is(err, errs.Code(trc.ErrTrcFieldLength)) {
			t.Errorf("%s: err = %v, want ErrTrcFieldLength", comp, err)
		}
	}
}

func TestFieldDecompressorTrimNeedsSignBit(t *testing.T) {
	d := NewFieldDecompressor(config.CompressionTrim, 8)
	if _, err := d.Decode(bitvec.New(0)); !errors.Is(err, errs.Code(trc.ErrTrcFieldLength)) {
		t.Errorf("err = %v, want ErrTrcFieldLength", err)
	}
}
