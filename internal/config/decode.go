package config

import (
	"fmt"

	"fpgatrace/common"
	"fpgatrace/internal/bitvec"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/trc"
)

// port byte 3
const (
	portInputsMask = 0x3F
	portCompMask   = 0xC0
	portCompShift  = 6
)

// trigger event byte 3
const (
	eventTwoRegsBit = 0x01
	eventOpMask     = 0x06
	eventOpShift    = 1
)

// trigger byte 3
const (
	triggerTypeMask  = 0x03
	triggerModeMask  = 0x0C
	triggerModeShift = 2
)

// instruction tracer byte 2
const (
	instBranchBit    = 0x80
	instPrioMask     = 0x78
	instPrioShift    = 3
	instHistoryMask  = 0x06
	instHistoryShift = 1
	instLSBit        = 0x01
)

// memory tracer last byte
const (
	memPrioMask   = 0x0F
	memCollectBit = 0x10
)

// flags byte
const (
	flagCycleAccurate = 0x01
	flagInformTrigger = 0x02
	flagTimeMask      = 0xE0
	flagTimeShift     = 5
)

// blobReader walks the blob one byte at a time, tagging length failures with
// the section being parsed.
type blobReader struct {
	b       []byte
	pos     int
	section trc.Section
}

func (r *blobReader) need(n int) error {
	if len(r.b)-r.pos < n {
		return errs.NewSectionError(trc.ErrCfgShort, r.section, int64(r.pos),
			fmt.Sprintf("need %d bytes, %d left", n, len(r.b)-r.pos))
	}
	return nil
}

// next returns the next byte. Callers check the length with need first.
func (r *blobReader) next() int {
	v := int(r.b[r.pos])
	r.pos++
	return v
}

// count reads the one byte entry count that opens a section.
func (r *blobReader) count(section trc.Section) (int, error) {
	r.section = section
	if err := r.need(1); err != nil {
		return 0, err
	}
	return r.next(), nil
}

func (r *blobReader) badEnum(what string, v int) error {
	return errs.NewSectionError(trc.ErrCfgBadEnum, r.section, int64(r.pos-1),
		fmt.Sprintf("reserved %s value %d", what, v))
}

// Decode parses a configuration blob. Inputs shorter than the fixed blob
// size are zero padded; empty and oversized inputs are rejected. Any error
// aborts the parse and no Config is returned.
func Decode(blob []byte, logger common.Logger) (*Config, error) {
	if logger == nil {
		logger = common.NewNoOpLogger()
	}
	if len(blob) == 0 {
		return nil, errs.NewErrorMsg(trc.ErrSevError, trc.ErrCfgEmpty, "no configuration bytes")
	}
	if len(blob) > trc.ConfigLength {
		return nil, errs.NewErrorMsg(trc.ErrSevError, trc.ErrCfgOversized,
			fmt.Sprintf("%d bytes, maximum %d", len(blob), trc.ConfigLength))
	}
	padded := make([]byte, trc.ConfigLength)
	copy(padded, blob)

	d := &decoder{
		r:   blobReader{b: padded},
		cfg: &Config{portByID: make(map[int]*Port)},
	}
	steps := []func() error{
		d.ports,
		d.trigger,
		d.instTracers,
		d.memTracers,
		d.messageTracers,
		d.flags,
		d.ice,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	cfg := d.cfg
	cfg.used = d.r.pos
	logger.Logf(common.SeverityDebug, "config: %d ports, %d trigger events, %d triggers, %d/%d/%d inst/mem/message tracers, %d ICE registers, %d bytes used",
		len(cfg.ports), len(cfg.events), len(cfg.triggers), len(cfg.inst), len(cfg.mem), len(cfg.msg), cfg.ice.Count(), d.r.pos)
	return cfg, nil
}

type decoder struct {
	r   blobReader
	cfg *Config
}

func (d *decoder) port(id int) (*Port, error) {
	p, ok := d.cfg.portByID[id]
	if !ok {
		return nil, errs.NewSectionError(trc.ErrCfgPortRef, d.r.section, int64(d.r.pos-1),
			fmt.Sprintf("invalid port reference %d", id))
	}
	return p, nil
}

func (d *decoder) ports() error {
	n, err := d.r.count(trc.SectionPorts)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := d.r.need(3); err != nil {
			return err
		}
		id := d.r.next()
		width := d.r.next() + 1
		b := d.r.next()
		p := newPort(id, width, b&portInputsMask, Compression((b&portCompMask)>>portCompShift))
		d.cfg.ports = append(d.cfg.ports, p)
		if _, dup := d.cfg.portByID[id]; !dup {
			d.cfg.portByID[id] = p
		}
	}
	return nil
}

func (d *decoder) trigger() error {
	n, err := d.r.count(trc.SectionTrigger)
	if err != nil {
		return err
	}

	type pending struct {
		id   int
		port *Port
		two  bool
		op   int
	}
	events := make([]pending, 0, n)
	width := 0
	for i := 0; i < n; i++ {
		if err := d.r.need(3); err != nil {
			return err
		}
		id := d.r.next()
		p, err := d.port(d.r.next())
		if err != nil {
			return err
		}
		b := d.r.next()
		ev := pending{id: id, port: p, two: b&eventTwoRegsBit != 0, op: (b & eventOpMask) >> eventOpShift}
		if ev.two {
			if _, ok := twoRegisterCompare(ev.op); !ok {
				return d.r.badEnum("two-register compare", ev.op)
			}
			width += 2 * p.Width
		} else {
			if _, ok := oneRegisterCompare(ev.op); !ok {
				return d.r.badEnum("one-register compare", ev.op)
			}
			width += p.Width
		}
		events = append(events, ev)
	}

	// default register values, packed LSB first in event order
	nbytes := (width + 7) / 8
	if err := d.r.need(nbytes); err != nil {
		return err
	}
	defaults := bitvec.New(width)
	for i := 0; i < nbytes; i++ {
		defaults.SetByte(i, byte(d.r.next()))
	}
	idx := 0
	for _, ev := range events {
		w := ev.port.Width
		if ev.two {
			op, _ := twoRegisterCompare(ev.op)
			d.cfg.events = append(d.cfg.events, &TwoRegistersEvent{
				id:   ev.id,
				port: ev.port,
				op:   op,
				reg1: defaults.Sub(idx, idx+w),
				reg2: defaults.Sub(idx+w, idx+2*w),
			})
			idx += 2 * w
		} else {
			op, _ := oneRegisterCompare(ev.op)
			d.cfg.events = append(d.cfg.events, &OneRegisterEvent{
				id:   ev.id,
				port: ev.port,
				op:   op,
				reg:  defaults.Sub(idx, idx+w),
			})
			idx += w
		}
	}

	if err := d.r.need(1); err != nil {
		return err
	}
	n = d.r.next()
	for i := 0; i < n; i++ {
		if err := d.r.need(3); err != nil {
			return err
		}
		id := d.r.next()
		nEvents := d.r.next()
		b := d.r.next()
		typ := b & triggerTypeMask
		if typ > int(TriggerTypeStop) {
			return d.r.badEnum("trigger type", typ)
		}
		d.cfg.triggers = append(d.cfg.triggers, Trigger{
			ID:     id,
			Type:   TriggerType(typ),
			Mode:   TriggerMode((b & triggerModeMask) >> triggerModeShift),
			Events: nEvents,
		})
	}
	return nil
}

func (d *decoder) instTracers() error {
	n, err := d.r.count(trc.SectionInst)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := d.r.need(3); err != nil {
			return err
		}
		addr, err := d.port(d.r.next())
		if err != nil {
			return err
		}
		b := d.r.next()
		t := &InstTracer{
			addrPort:     addr,
			priority:     (b & instPrioMask) >> instPrioShift,
			historyBytes: (b & instHistoryMask) >> instHistoryShift,
			lsEncoder:    b&instLSBit != 0,
			counterBits:  d.r.next(),
		}
		if b&instBranchBit != 0 {
			if err := d.r.need(1); err != nil {
				return err
			}
			if t.branchPort, err = d.port(d.r.next()); err != nil {
				return err
			}
		}
		d.cfg.inst = append(d.cfg.inst, t)
	}
	return nil
}

func (d *decoder) memTracers() error {
	n, err := d.r.count(trc.SectionMem)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := d.r.need(1); err != nil {
			return err
		}
		nAddr := d.r.next()
		if nAddr == 0 {
			return errs.NewSectionError(trc.ErrCfgPortRef, d.r.section, int64(d.r.pos-1),
				fmt.Sprintf("memory tracer %d has no address ports", i))
		}
		if err := d.r.need(4 + nAddr); err != nil {
			return err
		}
		t := &MemTracer{}
		for j := 0; j < nAddr; j++ {
			p, err := d.port(d.r.next())
			if err != nil {
				return err
			}
			t.addrPorts = append(t.addrPorts, p)
		}
		if t.dataPort, err = d.port(d.r.next()); err != nil {
			return err
		}
		if t.rwPort, err = d.port(d.r.next()); err != nil {
			return err
		}
		// source port id 0 means none
		if src := d.r.next(); src != 0 {
			if t.sourcePort, err = d.port(src); err != nil {
				return err
			}
		}
		b := d.r.next()
		t.priority = b & memPrioMask
		t.collectValue = b&memCollectBit != 0
		d.cfg.mem = append(d.cfg.mem, t)
	}
	return nil
}

func (d *decoder) messageTracers() error {
	n, err := d.r.count(trc.SectionMessage)
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NewSectionError(trc.ErrCfgNoSystemTracer, trc.SectionMessage, int64(d.r.pos-1),
			"message tracer count is 0")
	}
	for i := 0; i < n; i++ {
		if err := d.r.need(1); err != nil {
			return err
		}
		nPorts := d.r.next()
		if err := d.r.need(1 + nPorts); err != nil {
			return err
		}
		t := &MessageTracer{}
		for j := 0; j < nPorts; j++ {
			p, err := d.port(d.r.next())
			if err != nil {
				return err
			}
			t.msgPorts = append(t.msgPorts, p)
		}
		t.priority = d.r.next()
		d.cfg.msg = append(d.cfg.msg, t)
	}
	return nil
}

func (d *decoder) flags() error {
	b, err := d.r.count(trc.SectionFlags)
	if err != nil {
		return err
	}
	d.cfg.timeBits = ((b & flagTimeMask) >> flagTimeShift) + 1
	d.cfg.cycleAccurate = b&flagCycleAccurate != 0
	d.cfg.informTrigger = b&flagInformTrigger != 0
	return nil
}

func (d *decoder) ice() error {
	n, err := d.r.count(trc.SectionICE)
	if err != nil {
		return err
	}
	if err := d.r.need(n); err != nil {
		return err
	}
	widths := make([]int, n)
	for i := range widths {
		widths[i] = d.r.next()
	}
	d.cfg.ice = ICE{widths: widths}
	return nil
}
