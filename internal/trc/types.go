package trc

// Library Return and Error Codes

// Err represents the library error code type.
type Err uint32

const (
	OK      Err = 0
	ErrFail Err = 1

	// configuration blob structure
	ErrCfgEmpty          Err = 2
	ErrCfgOversized      Err = 3
	ErrCfgShort          Err = 4
	ErrCfgPortRef        Err = 5
	ErrCfgNoSystemTracer Err = 6
	ErrCfgBadEnum        Err = 7

	// trace stream content
	ErrTrcSelector      Err = 8
	ErrTrcSelectorRange Err = 9
	ErrTrcLSEncoding    Err = 10
	ErrTrcFieldLength   Err = 11
	ErrTrcMemTarget     Err = 12
	ErrTrcUnexpectedEOF Err = 13
	ErrTrcNoInstances   Err = 14

	// length contracts and side-table lookups
	ErrLength    Err = 15
	ErrUnknownID Err = 16

	// live control channel
	ErrCtlNack          Err = 17
	ErrCtlShortResponse Err = 18
	ErrCtlNotConnected  Err = 19

	ErrFileError       Err = 20
	ErrInvalidParamVal Err = 21
	ErrLast            Err = 22
)

// ErrSeverity is used to indicate the severity of an error.
type ErrSeverity uint32

const (
	ErrSevNone  ErrSeverity = 0
	ErrSevError ErrSeverity = 1
	ErrSevWarn  ErrSeverity = 2
	ErrSevInfo  ErrSeverity = 3
)

// Section identifies the part of the configuration blob being parsed.
type Section int

const (
	SectionNone    Section = -1
	SectionPorts   Section = 0
	SectionTrigger Section = 1
	SectionInst    Section = 2
	SectionMem     Section = 3
	SectionMessage Section = 4
	SectionFlags   Section = 5
	SectionICE     Section = 6
)

func (s Section) String() string {
	switch s {
	case SectionPorts:
		return "ports"
	case SectionTrigger:
		return "trigger"
	case SectionInst:
		return "inst-tracer"
	case SectionMem:
		return "mem-tracer"
	case SectionMessage:
		return "message-tracer"
	case SectionFlags:
		return "flags"
	case SectionICE:
		return "ice"
	}
	return "none"
}

// ConfigLength is the fixed size of a configuration blob and of the header
// of every trace file.
const ConfigLength = 2048

// MaxSelectorBits bounds the variable-length selector scan.
const MaxSelectorBits = 100

// Log2Ceil returns the number of bits needed to enumerate n values.
// Log2Ceil(0) and Log2Ceil(1) are both 0.
func Log2Ceil(n int) int {
	bits := 0
	for (1 << bits) < n {
		bits++
	}
	return bits
}
