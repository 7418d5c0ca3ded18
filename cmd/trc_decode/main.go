package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/profile"

	"fpgatrace/common"
	"fpgatrace/internal/lister"
	"fpgatrace/internal/statsview"
)

func main() {
	os.Exit(run())
}

// run returns the exit code; deferred profile writers finish before exit.
func run() int {
	traceFile := flag.String("trace", "", "Path to the trace file")
	outFile := flag.String("out", "", "CSV output file (default: trace file with .csv extension)")
	infoOnly := flag.Bool("info", false, "Print the trace configuration and stop")
	dump := flag.Bool("dump", false, "Hex dump of the configuration bytes")
	rows := flag.Bool("rows", false, "Also print every decoded row")
	verbose := flag.Bool("v", false, "Debug logging")
	logLevel := flag.String("log", common.SeverityWarning.String(), "Minimum log severity: DEBUG, INFO, WARNING or ERROR")
	dotFile := flag.String("dot", "", "Write a graphviz rendering of the configuration")
	profMode := flag.String("profile", "", "Profile the decoder: cpu or mem")
	stats := flag.Bool("statsview", false, "Serve runtime statistics while decoding")
	statsAddr := flag.String("stats_addr", statsview.DefaultAddr, "Listen address for -statsview")

	flag.Parse()

	if *traceFile == "" {
		fmt.Println("Trace Decoder : Error: Missing trace file on -trace option")
		return 1
	}

	switch *profMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		fmt.Printf("Trace Decoder : Error: unknown profile mode %q\n", *profMode)
		return 1
	}

	if *stats {
		sv := statsview.Start(*statsAddr, os.Stdout)
		defer sv.Stop()
	}

	level, ok := common.ParseSeverity(*logLevel)
	if !ok {
		fmt.Printf("Trace Decoder : Error: unknown log severity %q\n", *logLevel)
		return 1
	}
	if *verbose {
		level = common.SeverityDebug
	}

	cfg := lister.Config{
		TraceFile:    *traceFile,
		OutFile:      *outFile,
		InfoOnly:     *infoOnly,
		DumpConfig:   *dump,
		PrintRows:    *rows,
		DotFile:      *dotFile,
		Logger:       common.NewStdLogger(level).WithComponent("decode"),
		OutputWriter: os.Stdout,
	}

	if err := lister.Run(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	return 0
}
