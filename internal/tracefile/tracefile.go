// Package tracefile opens recorded traces: a fixed size configuration blob
// followed by the bit-packed event stream.
package tracefile

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"fpgatrace/common"
	"fpgatrace/internal/bitio"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/config"
	"fpgatrace/internal/trc"
)

// Reader gives access to the decoded header and the stream of one trace.
type Reader struct {
	Path   string
	Config *config.Config
	Blob   []byte

	br     *bufio.Reader
	closer io.Closer
}

// Open opens the trace file at path and decodes its configuration header.
func Open(path string, logger common.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WrapError(trc.ErrFileError, err, "opening trace file")
	}
	r, err := NewReader(f, logger)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.Path = path
	r.closer = f
	return r, nil
}

// NewReader reads and decodes the configuration header from src. The
// stream starts right after it.
func NewReader(src io.Reader, logger common.Logger) (*Reader, error) {
	br := bufio.NewReader(src)
	blob := make([]byte, trc.ConfigLength)
	if n, err := io.ReadFull(br, blob); err != nil {
		return nil, errs.WrapError(trc.ErrFileError, err,
			fmt.Sprintf("trace header is %d bytes, want %d", n, trc.ConfigLength))
	}
	cfg, err := config.Decode(blob, logger)
	if err != nil {
		return nil, err
	}
	return &Reader{Config: cfg, Blob: blob, br: br}, nil
}

// Stream returns a bit reader positioned at the first stream bit.
func (r *Reader) Stream() *bitio.Reader {
	return bitio.NewReader(r.br)
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
