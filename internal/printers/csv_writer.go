package printers

import (
	"encoding/csv"
	"io"
	"strconv"

	"fpgatrace/internal/bitvec"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/trc"
)

// csvFlushRows is the number of rows buffered between flushes.
const csvFlushRows = 1000

// CSVWriter writes decoded rows as comma separated lines: the cycle number,
// then one hex cell per slot of every instance, then an empty cell. Absent
// values are empty cells.
type CSVWriter struct {
	w         *csv.Writer
	closer    io.Closer
	instances int
	cycle     int64
	rows      int
	closed    bool
}

// NewCSVWriter writes to out. If out is an io.Closer it is closed by Close.
func NewCSVWriter(out io.Writer, instances int) *CSVWriter {
	c := &CSVWriter{w: csv.NewWriter(out), instances: instances}
	if cl, ok := out.(io.Closer); ok {
		c.closer = cl
	}
	return c
}

func (c *CSVWriter) NextCycle(n int) {
	if n > 0 {
		c.cycle += int64(n)
	}
}

// Rows returns the number of rows written.
func (c *CSVWriter) Rows() int {
	return c.rows
}

func (c *CSVWriter) WriteRow(values [][]*bitvec.BitVector) error {
	if len(values) != c.instances {
		return errs.Errorf(trc.ErrLength, "row has %d instances, writer configured for %d", len(values), c.instances)
	}
	record := []string{strconv.FormatInt(c.cycle, 10)}
	for _, inst := range values {
		for _, v := range inst {
			if v == nil {
				record = append(record, "")
			} else {
				record = append(record, v.Hex())
			}
		}
	}
	record = append(record, "")
	if err := c.w.Write(record); err != nil {
		return errs.WrapError(trc.ErrFileError, err, "writing csv row")
	}
	c.rows++
	if c.rows%csvFlushRows == 0 {
		return c.flush()
	}
	return nil
}

func (c *CSVWriter) flush() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return errs.WrapError(trc.ErrFileError, err, "flushing csv output")
	}
	return nil
}

// Close flushes buffered rows and closes the underlying writer. Calling Close
// again is a no-op.
func (c *CSVWriter) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.flush()
	if c.closer != nil {
		if cerr := c.closer.Close(); cerr != nil && err == nil {
			err = errs.WrapError(trc.ErrFileError, cerr, "closing csv output")
		}
	}
	return err
}
