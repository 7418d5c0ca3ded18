package config

import "fpgatrace/internal/bitvec"

// TriggerSingleEvent is one comparator on a port. The concrete type is
// *OneRegisterEvent or *TwoRegistersEvent.
type TriggerSingleEvent interface {
	ID() int
	Port() *Port
	CompareOp() CompareOp
	// RegsWidth is the total register width: the port width, doubled for
	// two-register events.
	RegsWidth() int
	// Default returns the register values from the blob, low register in
	// the low bits.
	Default() *bitvec.BitVector
	isEvent()
}

// OneRegisterEvent compares a port against a single register.
type OneRegisterEvent struct {
	id   int
	port *Port
	op   OneRegisterCompare
	reg  *bitvec.BitVector
}

func (e *OneRegisterEvent) ID() int                    { return e.id }
func (e *OneRegisterEvent) Port() *Port                { return e.port }
func (e *OneRegisterEvent) CompareOp() CompareOp       { return e.op }
func (e *OneRegisterEvent) Op() OneRegisterCompare     { return e.op }
func (e *OneRegisterEvent) RegsWidth() int             { return e.port.Width }
func (e *OneRegisterEvent) Default() *bitvec.BitVector { return e.reg.Copy() }
func (e *OneRegisterEvent) isEvent()                   {}

// TwoRegistersEvent compares a port against a range held in two registers.
type TwoRegistersEvent struct {
	id   int
	port *Port
	op   TwoRegisterCompare
	reg1 *bitvec.BitVector
	reg2 *bitvec.BitVector
}

func (e *TwoRegistersEvent) ID() int                { return e.id }
func (e *TwoRegistersEvent) Port() *Port            { return e.port }
func (e *TwoRegistersEvent) CompareOp() CompareOp   { return e.op }
func (e *TwoRegistersEvent) Op() TwoRegisterCompare { return e.op }
func (e *TwoRegistersEvent) RegsWidth() int         { return 2 * e.port.Width }
func (e *TwoRegistersEvent) Default() *bitvec.BitVector {
	return e.reg1.Concat(e.reg2)
}
func (e *TwoRegistersEvent) isEvent() {}

// Trigger combines trigger events into a start, stop or window trigger.
type Trigger struct {
	ID     int
	Type   TriggerType
	Mode   TriggerMode
	Events int
}

// ICE describes the in-circuit emulation registers.
type ICE struct {
	widths []int
}

func (i ICE) Count() int { return len(i.widths) }

// Width returns the width of register n in bits, or -1 if there is none.
func (i ICE) Width(n int) int {
	if n < 0 || n >= len(i.widths) {
		return -1
	}
	return i.widths[n]
}

func (i ICE) MaxWidth() int {
	m := 0
	for _, w := range i.widths {
		if w > m {
			m = w
		}
	}
	return m
}

func (i ICE) SumWidth() int {
	s := 0
	for _, w := range i.widths {
		s += w
	}
	return s
}
