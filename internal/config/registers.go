package config

import (
	"fmt"

	"fpgatrace/internal/bitvec"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/trc"
)

type eventRegs struct {
	event   TriggerSingleEvent
	op      CompareOp
	reg1    *bitvec.BitVector
	reg2    *bitvec.BitVector // nil for one-register events
	enabled bool
}

type triggerRegs struct {
	typ  TriggerType
	mode TriggerMode
}

// Registers holds the live, mutable trigger and ICE register values of a
// tracer. It starts from the defaults of a decoded Config and never writes
// back to it. Failed updates leave the table unchanged.
type Registers struct {
	events   map[int]*eventRegs
	triggers map[int]*triggerRegs
	ice      ICE
}

// NewRegisters creates a side-table seeded with the decoded defaults. Every
// trigger event starts enabled.
func (c *Config) NewRegisters() *Registers {
	r := &Registers{
		events:   make(map[int]*eventRegs, len(c.events)),
		triggers: make(map[int]*triggerRegs, len(c.triggers)),
		ice:      c.ice,
	}
	for _, e := range c.events {
		er := &eventRegs{event: e, op: e.CompareOp(), enabled: true}
		switch ev := e.(type) {
		case *OneRegisterEvent:
			er.reg1 = ev.reg.Copy()
		case *TwoRegistersEvent:
			er.reg1 = ev.reg1.Copy()
			er.reg2 = ev.reg2.Copy()
		}
		r.events[e.ID()] = er
	}
	for _, t := range c.triggers {
		r.triggers[t.ID] = &triggerRegs{typ: t.Type, mode: t.Mode}
	}
	return r
}

func unknownID(what string, id int) error {
	return errs.Errorf(trc.ErrUnknownID, "no %s with id %d", what, id)
}

func (r *Registers) event(id int) (*eventRegs, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, unknownID("trigger event", id)
	}
	return e, nil
}

// TriggerRegister returns a copy of the first or second register of an
// event.
func (r *Registers) TriggerRegister(id int, second bool) (*bitvec.BitVector, error) {
	e, err := r.event(id)
	if err != nil {
		return nil, err
	}
	if !second {
		return e.reg1.Copy(), nil
	}
	if e.reg2 == nil {
		return nil, errs.Errorf(trc.ErrInvalidParamVal, "trigger event %d has one register", id)
	}
	return e.reg2.Copy(), nil
}

// SetTriggerRegister replaces a register value. The value must be exactly
// the port width.
func (r *Registers) SetTriggerRegister(id int, second bool, v *bitvec.BitVector) error {
	e, err := r.event(id)
	if err != nil {
		return err
	}
	if second && e.reg2 == nil {
		return errs.Errorf(trc.ErrInvalidParamVal, "trigger event %d has one register", id)
	}
	if w := e.event.Port().Width; v.Len() != w {
		return errs.Errorf(trc.ErrLength, "register of trigger event %d is %d bits, got %d", id, w, v.Len())
	}
	if second {
		e.reg2 = v.Copy()
	} else {
		e.reg1 = v.Copy()
	}
	return nil
}

// RegisterValue returns both registers concatenated, low register first.
func (r *Registers) RegisterValue(id int) (*bitvec.BitVector, error) {
	e, err := r.event(id)
	if err != nil {
		return nil, err
	}
	if e.reg2 == nil {
		return e.reg1.Copy(), nil
	}
	return e.reg1.Concat(e.reg2), nil
}

func (r *Registers) CompareOp(id int) (CompareOp, error) {
	e, err := r.event(id)
	if err != nil {
		return nil, err
	}
	return e.op, nil
}

// SetCompareOp changes the comparison of an event. The op must be of the
// same variant as the event.
func (r *Registers) SetCompareOp(id int, op CompareOp) error {
	e, err := r.event(id)
	if err != nil {
		return err
	}
	if op == nil || op.TwoRegisters() != (e.reg2 != nil) {
		return errs.Errorf(trc.ErrInvalidParamVal, "compare op %v does not fit trigger event %d", op, id)
	}
	e.op = op
	return nil
}

func (r *Registers) EventEnabled(id int) (bool, error) {
	e, err := r.event(id)
	if err != nil {
		return false, err
	}
	return e.enabled, nil
}

// ToggleEvent flips the enable state of an event and returns the new state.
func (r *Registers) ToggleEvent(id int) (bool, error) {
	e, err := r.event(id)
	if err != nil {
		return false, err
	}
	e.enabled = !e.enabled
	return e.enabled, nil
}

func (r *Registers) trigger(id int) (*triggerRegs, error) {
	t, ok := r.triggers[id]
	if !ok {
		return nil, unknownID("trigger", id)
	}
	return t, nil
}

func (r *Registers) TriggerMode(id int) (TriggerMode, error) {
	t, err := r.trigger(id)
	if err != nil {
		return 0, err
	}
	return t.mode, nil
}

func (r *Registers) SetTriggerMode(id int, mode TriggerMode) error {
	t, err := r.trigger(id)
	if err != nil {
		return err
	}
	if mode < TriggerModePoint || mode > TriggerModeCenter {
		return errs.Errorf(trc.ErrInvalidParamVal, "trigger mode %d", int(mode))
	}
	t.mode = mode
	return nil
}

func (r *Registers) TriggerType(id int) (TriggerType, error) {
	t, err := r.trigger(id)
	if err != nil {
		return 0, err
	}
	return t.typ, nil
}

func (r *Registers) SetTriggerType(id int, typ TriggerType) error {
	t, err := r.trigger(id)
	if err != nil {
		return err
	}
	if typ < TriggerTypeNormal || typ > TriggerTypeStop {
		return errs.Errorf(trc.ErrInvalidParamVal, "trigger type %d", int(typ))
	}
	t.typ = typ
	return nil
}

// ICEWidth returns the width of ICE register i.
func (r *Registers) ICEWidth(i int) (int, error) {
	w := r.ice.Width(i)
	if w < 0 {
		return 0, unknownID("ICE register", i)
	}
	return w, nil
}

// SplitICE cuts a concatenated ICE register readback into one vector per
// register, register 0 in the low bits. The readback must cover the summed
// register widths; padding above them is ignored.
func (r *Registers) SplitICE(v *bitvec.BitVector) ([]*bitvec.BitVector, error) {
	sum := r.ice.SumWidth()
	if v.Len() < sum {
		return nil, errs.NewErrorMsg(trc.ErrSevError, trc.ErrLength,
			fmt.Sprintf("ICE readback is %d bits, registers need %d", v.Len(), sum))
	}
	out := make([]*bitvec.BitVector, r.ice.Count())
	idx := 0
	for i := range out {
		w := r.ice.Width(i)
		out[i] = v.Sub(idx, idx+w)
		idx += w
	}
	return out, nil
}
