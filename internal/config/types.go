package config

import "fmt"

// Compression is the per-port field encoding applied by the hardware.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionDiff
	CompressionXor
	CompressionTrim
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionDiff:
		return "diff"
	case CompressionXor:
		return "xor"
	case CompressionTrim:
		return "trim"
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// TriggerMode positions the trace window around the trigger point.
type TriggerMode int

const (
	TriggerModePoint TriggerMode = iota
	TriggerModePre
	TriggerModePost
	TriggerModeCenter
)

func (m TriggerMode) String() string {
	switch m {
	case TriggerModePoint:
		return "point"
	case TriggerModePre:
		return "pre"
	case TriggerModePost:
		return "post"
	case TriggerModeCenter:
		return "center"
	}
	return fmt.Sprintf("TriggerMode(%d)", int(m))
}

// TriggerType selects what a trigger does when it fires.
type TriggerType int

const (
	TriggerTypeNormal TriggerType = iota
	TriggerTypeStart
	TriggerTypeStop
)

func (t TriggerType) String() string {
	switch t {
	case TriggerTypeNormal:
		return "normal"
	case TriggerTypeStart:
		return "start"
	case TriggerTypeStop:
		return "stop"
	}
	return fmt.Sprintf("TriggerType(%d)", int(t))
}

// CompareOp is the comparison of a trigger event. It is either a
// OneRegisterCompare or a TwoRegisterCompare.
type CompareOp interface {
	fmt.Stringer
	TwoRegisters() bool
	code() int
}

// OneRegisterCompare compares the port value against one register.
type OneRegisterCompare int

const (
	CompareGreater OneRegisterCompare = iota
	CompareEqual
	CompareSmaller
)

func (c OneRegisterCompare) TwoRegisters() bool { return false }
func (c OneRegisterCompare) code() int          { return int(c) }

func (c OneRegisterCompare) String() string {
	switch c {
	case CompareGreater:
		return "greater"
	case CompareEqual:
		return "equal"
	case CompareSmaller:
		return "smaller"
	}
	return fmt.Sprintf("OneRegisterCompare(%d)", int(c))
}

// TwoRegisterCompare compares the port value against a range.
type TwoRegisterCompare int

const (
	CompareBetweenEqual TwoRegisterCompare = iota
	CompareOutside
)

func (c TwoRegisterCompare) TwoRegisters() bool { return true }
func (c TwoRegisterCompare) code() int          { return int(c) }

func (c TwoRegisterCompare) String() string {
	switch c {
	case CompareBetweenEqual:
		return "between-equal"
	case CompareOutside:
		return "outside"
	}
	return fmt.Sprintf("TwoRegisterCompare(%d)", int(c))
}

func oneRegisterCompare(v int) (OneRegisterCompare, bool) {
	if v < 0 || v > int(CompareSmaller) {
		return 0, false
	}
	return OneRegisterCompare(v), true
}

func twoRegisterCompare(v int) (TwoRegisterCompare, bool) {
	if v < 0 || v > int(CompareOutside) {
		return 0, false
	}
	return TwoRegisterCompare(v), true
}
