package printers

import (
	"fmt"
	"io"
	"strings"

	"fpgatrace/common"
)

// ItemPrinter is the base of the text printers: an output writer, an
// optional logger that mirrors every line, and a mute switch.
type ItemPrinter struct {
	writer io.Writer
	logger common.Logger
	muted  bool
}

// NewItemPrinter constructs an ItemPrinter using the given io.Writer.
func NewItemPrinter(writer io.Writer) *ItemPrinter {
	return &ItemPrinter{
		writer: writer,
	}
}

// SetMessageLogger sets the optional logger mirroring printed lines at info
// level.
func (p *ItemPrinter) SetMessageLogger(logger common.Logger) {
	p.logger = logger
}

// ItemPrintLine writes msg to the writer and, when set, the logger.
func (p *ItemPrinter) ItemPrintLine(msg string) {
	if p.writer != nil {
		fmt.Fprint(p.writer, msg)
	}
	if p.logger != nil {
		p.logger.Info(strings.TrimSuffix(msg, "\n"))
	}
}

// SetMute sets the printer to mute (avoids output).
func (p *ItemPrinter) SetMute(mute bool) { p.muted = mute }

// IsMuted returns true if the printer is muted.
func (p *ItemPrinter) IsMuted() bool { return p.muted }
