package decompress

import (
	"errors"
	"fmt"
	"io"

	"fpgatrace/common"
	"fpgatrace/internal/bitio"
	"fpgatrace/internal/bitvec"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/config"
	"fpgatrace/internal/trc"
)

// RowWriter receives decoded rows. A row holds one entry per instance, each
// entry one value per slot; nil marks a value absent from the row.
type RowWriter interface {
	// NextCycle advances the cycle counter by n before the next row.
	NextCycle(n int)
	WriteRow(values [][]*bitvec.BitVector) error
	Close() error
}

// Stats summarises a decode run.
type Stats struct {
	Rows     int
	Cycles   int64
	Events   []int // per instance
	Selector SelectorKind
}

// Controller drives decode runs for one configuration. A Controller may be
// used for many sequential runs; each run starts from fresh decode state.
type Controller struct {
	cfg    *config.Config
	logger common.Logger
}

func New(cfg *config.Config, logger common.Logger) *Controller {
	if logger == nil {
		logger = common.NewNoOpLogger()
	}
	return &Controller{cfg: cfg, logger: logger}
}

// run holds the state of a single Run call.
type run struct {
	r         *bitio.Reader
	w         RowWriter
	instances []*Instance
	sel       Selector
	stats     Stats
}

// Run decodes the event stream read by r into w until the system tracer
// signals the end of trace. w is closed on every return path.
func (c *Controller) Run(r *bitio.Reader, w RowWriter) (stats Stats, err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = errs.WrapError(trc.ErrFileError, cerr, "closing row writer")
		}
	}()

	instances := NewInstances(c.cfg)
	if len(instances) == 0 {
		return stats, errs.NewErrorMsg(trc.ErrSevError, trc.ErrTrcNoInstances, "configuration has no tracer instances")
	}
	if sys := instances[len(instances)-1]; sys.Tracer != config.Tracer(c.cfg.SystemTracer()) {
		return stats, errs.NewErrorMsg(trc.ErrSevError, trc.ErrTrcNoInstances, "system tracer has no inputs")
	}

	ru := &run{
		r:         r,
		w:         w,
		instances: instances,
		sel:       NewSelector(c.cfg.Tracers(), instances),
	}
	ru.stats.Events = make([]int, len(instances))
	ru.stats.Selector = ru.sel.Kind()

	switch s := ru.sel.(type) {
	case *EqualCoding:
		c.logger.Logf(common.SeverityDebug, "equal coding, %d instances, %d bit codes", len(instances), s.CodeBits())
	case *PriorityCoding:
		c.logger.Logf(common.SeverityDebug, "priority coding, %d instances, codes %v", len(instances), s.Codes())
	}

	if c.cfg.CycleAccurate() {
		err = ru.cycleAccurate(c.cfg.TimeBits())
	} else {
		err = ru.eventOnly()
	}
	if err != nil {
		return ru.stats, ru.streamErr(err)
	}

	c.logger.Logf(common.SeverityInfo, "decoded %d rows over %d cycles, events per instance %v",
		ru.stats.Rows, ru.stats.Cycles, ru.stats.Events)
	return ru.stats, nil
}

// streamErr turns an end of stream inside the trace into a trace error.
func (ru *run) streamErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		e := errs.WrapError(trc.ErrTrcUnexpectedEOF, err,
			fmt.Sprintf("stream ended after %d rows without end of trace", ru.stats.Rows))
		e.Idx = ru.r.BitsRead()
		return e
	}
	return err
}

func (ru *run) emptyRow() [][]*bitvec.BitVector {
	row := make([][]*bitvec.BitVector, len(ru.instances))
	for i, in := range ru.instances {
		row[i] = in.Empty()
	}
	return row
}

func (ru *run) advance(n int) {
	ru.w.NextCycle(n)
	if n > 0 {
		ru.stats.Cycles += int64(n)
	}
}

func (ru *run) write(row [][]*bitvec.BitVector) error {
	if err := ru.w.WriteRow(row); err != nil {
		return err
	}
	ru.stats.Rows++
	return nil
}

// decode reads the event of in into its entry of row.
func (ru *run) decode(in *Instance, row [][]*bitvec.BitVector) error {
	vals, err := in.DecodeEvent(ru.r)
	if err != nil {
		return err
	}
	row[in.Index] = vals
	ru.stats.Events[in.Index]++
	return nil
}

// endOfTrace reports whether the system tracer's entry in row has its flag
// bit set.
func endOfTrace(row [][]*bitvec.BitVector) bool {
	sys := row[len(row)-1]
	if len(sys) == 0 || sys[0] == nil || sys[0].IsEmpty() {
		return false
	}
	return sys[0].Bit(0)
}

// eventOnly decodes a trace without timing: one event per row, one cycle per
// row.
func (ru *run) eventOnly() error {
	for {
		row := ru.emptyRow()
		in, err := ru.sel.Next(ru.r)
		if err != nil {
			return err
		}
		if err := ru.decode(in, row); err != nil {
			return err
		}
		ru.advance(1)
		if err := ru.write(row); err != nil {
			return err
		}
		if endOfTrace(row) {
			return nil
		}
	}
}

// cycleAccurate decodes a trace where each burst of events is preceded by a
// cycle delta. The all ones delta is an escape for longer idle runs and a
// zero delta keeps the next event in the current cycle.
func (ru *run) cycleAccurate(timeBits int) error {
	escape := 1<<timeBits - 1

	delta, err := ru.r.ReadInt(timeBits)
	if err != nil {
		return err
	}
	for {
		for delta == escape {
			ru.advance(delta - 1)
			if delta, err = ru.r.ReadInt(timeBits); err != nil {
				return err
			}
		}
		ru.advance(delta)

		row := ru.emptyRow()
		last := -1
		for {
			in, err := ru.sel.Next(ru.r)
			if err != nil {
				return err
			}
			// a repeated instance starts a new row in the same cycle
			if in.Index == last {
				if err := ru.write(row); err != nil {
					return err
				}
				row = ru.emptyRow()
			}
			last = in.Index

			if err := ru.decode(in, row); err != nil {
				return err
			}
			if endOfTrace(row) {
				return ru.write(row)
			}
			if delta, err = ru.r.ReadInt(timeBits); err != nil {
				return err
			}
			if delta != 0 {
				break
			}
		}
		if err := ru.write(row); err != nil {
			return err
		}
	}
}
