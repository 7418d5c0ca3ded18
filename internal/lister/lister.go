package lister

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bradleyjkemp/memviz"

	"fpgatrace/common"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/decompress"
	"fpgatrace/internal/printers"
	"fpgatrace/internal/tracefile"
	"fpgatrace/internal/trc"
)

// Config mirrors the command line arguments of trc_decode.
type Config struct {
	TraceFile    string
	OutFile      string // default: trace file name with a .csv extension
	InfoOnly     bool   // print the configuration and stop
	DumpConfig   bool   // hex dump of the used configuration bytes
	PrintRows    bool   // also print every row as text
	DotFile      string // optional: graph of the decoded configuration
	Logger       common.Logger
	OutputWriter io.Writer
}

// DefaultOutFile derives the CSV name from the trace file name.
func DefaultOutFile(traceFile string) string {
	return strings.TrimSuffix(traceFile, filepath.Ext(traceFile)) + ".csv"
}

// Run reads a trace file, prints its configuration and decodes the stream
// to CSV.
func Run(cfg Config) error {
	w := cfg.OutputWriter
	if w == nil {
		w = os.Stdout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = common.NewNoOpLogger()
	}

	fmt.Fprintln(w, "Trace Decoder: FPGA tracer stream to CSV")
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "Trace Decoder : reading trace from %s\n", cfg.TraceFile)

	tf, err := tracefile.Open(cfg.TraceFile, logger)
	if err != nil {
		return fmt.Errorf("failed to read trace file: %w", err)
	}
	defer tf.Close()

	tf.Config.Summary(w, nil)
	if cfg.DumpConfig {
		printers.NewBlobPrinter(w).PrintBlob(tf.Blob, tf.Config.BytesUsed())
	}

	if cfg.DotFile != "" {
		if err := writeDot(cfg.DotFile, tf); err != nil {
			return err
		}
		fmt.Fprintf(w, "Configuration graph written to %s\n", cfg.DotFile)
	}

	if cfg.InfoOnly {
		return nil
	}

	outFile := cfg.OutFile
	if outFile == "" {
		outFile = DefaultOutFile(cfg.TraceFile)
	}
	out, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", errs.WrapError(trc.ErrFileError, err, outFile))
	}
	fmt.Fprintf(w, "Writing rows to %s\n", outFile)

	labels := instanceLabels(tf)
	csv := printers.NewCSVWriter(out, len(labels))
	var sink decompress.RowWriter = csv
	if cfg.PrintRows {
		sink = printers.Tee{csv, printers.NewRowPrinter(w, labels)}
	}

	ctl := decompress.New(tf.Config, logger)
	stats, err := ctl.Run(tf.Stream(), sink)
	if err != nil {
		return fmt.Errorf("error decoding trace: %w", err)
	}

	fmt.Fprintf(w, "Decoded %d rows over %d cycles (%s selector coding)\n", stats.Rows, stats.Cycles, stats.Selector)
	for i, n := range stats.Events {
		fmt.Fprintf(w, "  %s : %d events\n", labels[i], n)
	}
	return nil
}

func instanceLabels(tf *tracefile.Reader) []string {
	instances := decompress.NewInstances(tf.Config)
	labels := make([]string, len(instances))
	for i, in := range instances {
		labels[i] = in.String()
	}
	return labels
}

// writeDot writes a graphviz rendering of the decoded configuration.
func writeDot(path string, tf *tracefile.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", errs.WrapError(trc.ErrFileError, err, path))
	}
	memviz.Map(f, tf.Config)
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write graph file: %w", errs.WrapError(trc.ErrFileError, err, path))
	}
	return nil
}
