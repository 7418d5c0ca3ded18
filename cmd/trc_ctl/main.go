package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"fpgatrace/common"
	"fpgatrace/internal/control"
)

func main() {
	addr := flag.String("addr", control.DefaultAddr, "Control server address")
	op := flag.String("op", "config", "Operation: config, start, stop, ice-stop, ice-start, ice-regs")
	traceFile := flag.String("trace", "", "Receiver trace file for -op start")
	wait := flag.Duration("wait", time.Second, "Pause before the receiver flush on -op stop")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	level := common.SeverityWarning
	if *verbose {
		level = common.SeverityDebug
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *addr, *op, *traceFile, control.Options{StopWait: *wait, Logger: common.NewStdLogger(level).WithComponent("control")}); err != nil {
		fmt.Printf("Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, addr, op, traceFile string, opts control.Options) (err error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c, err := control.Dial(dialCtx, addr, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	switch op {
	case "config":
		c.Config().Summary(os.Stdout, c.Registers())
	case "start":
		if traceFile == "" {
			return fmt.Errorf("-op start needs -trace")
		}
		if err := c.StartTracing(traceFile); err != nil {
			return err
		}
		fmt.Printf("Tracing into %s\n", traceFile)
	case "stop":
		if err := c.StopTracing(ctx); err != nil {
			return err
		}
		fmt.Println("Tracing stopped")
	case "ice-stop":
		if err := c.StopSystem(); err != nil {
			return err
		}
		stopped, err := c.SystemStopped()
		if err != nil {
			return err
		}
		fmt.Printf("System stopped: %v\n", stopped)
	case "ice-start":
		if err := c.StartSystem(); err != nil {
			return err
		}
		fmt.Println("System started")
	case "ice-regs":
		regs, err := c.ICERegisters()
		if err != nil {
			return err
		}
		for i, r := range regs {
			fmt.Printf("ICE register %d (%d bits): %s\n", i, r.Len(), r.Hex())
		}
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	return nil
}
