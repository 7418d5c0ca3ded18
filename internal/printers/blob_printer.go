package printers

import (
	"fmt"
	"io"
	"strings"
)

// BlobPrinter dumps a configuration blob as hex, 16 bytes per line.
type BlobPrinter struct {
	ItemPrinter
}

// NewBlobPrinter creates a new printer for configuration blobs.
func NewBlobPrinter(writer io.Writer) *BlobPrinter {
	return &BlobPrinter{
		ItemPrinter: *NewItemPrinter(writer),
	}
}

// PrintBlob prints the first used bytes of data. Lines are prefixed with the
// byte offset of their first byte. A used count beyond data is clipped.
func (p *BlobPrinter) PrintBlob(data []byte, used int) {
	if p.IsMuted() {
		return
	}
	if used > len(data) {
		used = len(data)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config Data; %d of %d bytes used\n", used, len(data)))
	for off := 0; off < used; off += 16 {
		end := min(off+16, used)
		sb.WriteString(fmt.Sprintf("Index%7d; ", off))
		for _, b := range data[off:end] {
			sb.WriteString(fmt.Sprintf("%02x ", b))
		}
		sb.WriteString("\n")
	}
	p.ItemPrintLine(sb.String())
}
