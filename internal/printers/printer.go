package printers

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"fpgatrace/internal/bitvec"
)

// RowPrinter prints decoded rows as text, one line per row listing only the
// instances with an event:
//
//	Cycle:12; mem#2.0: 40,-,1; message#3.0: 01
type RowPrinter struct {
	ItemPrinter
	labels       []string
	cycle        int64
	collectStats bool
	counts       []int
}

// NewRowPrinter creates a printer for rows of len(labels) instances.
func NewRowPrinter(writer io.Writer, labels []string) *RowPrinter {
	return &RowPrinter{
		ItemPrinter: *NewItemPrinter(writer),
		labels:      labels,
		counts:      make([]int, len(labels)),
	}
}

// SetCollectStats counts events per instance for PrintStats.
func (p *RowPrinter) SetCollectStats() { p.collectStats = true }

func (p *RowPrinter) NextCycle(n int) {
	if n > 0 {
		p.cycle += int64(n)
	}
}

func (p *RowPrinter) WriteRow(values [][]*bitvec.BitVector) error {
	if len(values) != len(p.labels) {
		return fmt.Errorf("row has %d instances, printer has %d labels", len(values), len(p.labels))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cycle:%d;", p.cycle)
	for i, inst := range values {
		if !hasValue(inst) {
			continue
		}
		if p.collectStats {
			p.counts[i]++
		}
		cells := make([]string, len(inst))
		for k, v := range inst {
			if v == nil {
				cells[k] = "-"
			} else {
				cells[k] = v.Hex()
			}
		}
		fmt.Fprintf(&sb, " %s: %s;", p.labels[i], strings.Join(cells, ","))
	}
	if !p.IsMuted() {
		p.ItemPrintLine(strings.TrimSuffix(sb.String(), ";") + "\n")
	}
	return nil
}

func hasValue(inst []*bitvec.BitVector) bool {
	for _, v := range inst {
		if v != nil {
			return true
		}
	}
	return false
}

// Close is a no-op; the printer does not own its writer.
func (p *RowPrinter) Close() error { return nil }

// PrintStats prints the event count of every instance.
func (p *RowPrinter) PrintStats() {
	if !p.collectStats {
		p.ItemPrintLine("No event statistics collected\n")
		return
	}
	p.ItemPrintLine("Events per instance:\n")
	for i, label := range p.labels {
		p.ItemPrintLine(fmt.Sprintf("%s : %d\n", label, p.counts[i]))
	}
}

// RowSink is the row writer interface shared by the printers.
type RowSink interface {
	NextCycle(n int)
	WriteRow(values [][]*bitvec.BitVector) error
	Close() error
}

// Tee sends every row to all sinks.
type Tee []RowSink

func (t Tee) NextCycle(n int) {
	for _, s := range t {
		s.NextCycle(n)
	}
}

func (t Tee) WriteRow(values [][]*bitvec.BitVector) error {
	for _, s := range t {
		if err := s.WriteRow(values); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (t Tee) Close() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
