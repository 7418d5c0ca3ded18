package config

import "fpgatrace/internal/trc"

// Port is a hardware signal bus of fixed width feeding one or more tracers.
type Port struct {
	ID          int
	Width       int // bits
	Inputs      int // lane count
	Compression Compression
}

func newPort(id, width, inputs int, comp Compression) *Port {
	// narrow ports are never compressed
	if width < 8 {
		comp = CompressionNone
	}
	return &Port{ID: id, Width: width, Inputs: inputs, Compression: comp}
}

// Compressed reports whether the port carries a compressed part.
func (p *Port) Compressed() bool {
	return p.Compression != CompressionNone
}

// LowBits is the number of raw bits sent ahead of the compressed part. An
// uncompressed port sends its full width here.
func (p *Port) LowBits() int {
	if !p.Compressed() {
		return p.Width
	}
	return p.Width % 8
}

// CompressedBits is the width of the compressed part, a whole number of
// bytes.
func (p *Port) CompressedBits() int {
	if !p.Compressed() {
		return 0
	}
	return (p.Width / 8) * 8
}

// LengthBits is the width of the byte count preceding the compressed part.
func (p *Port) LengthBits() int {
	if !p.Compressed() {
		return 0
	}
	return trc.Log2Ceil(p.Width/8 + 1)
}
