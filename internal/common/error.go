package common

import (
	"fmt"
	"strings"

	"fpgatrace/internal/trc"
)

// BadIdx marks an error with no associated stream or blob position.
const BadIdx int64 = -1

// Error represents the library error object.
type Error struct {
	Code    trc.Err
	Sev     trc.ErrSeverity
	Section trc.Section
	Idx     int64 // byte offset into a config blob, or bit count into a trace stream
	Message string
	Err     error // underlying cause, if any
}

func NewError(sev trc.ErrSeverity, code trc.Err) *Error {
	return &Error{
		Code:    code,
		Sev:     sev,
		Section: trc.SectionNone,
		Idx:     BadIdx,
	}
}

func NewErrorMsg(sev trc.ErrSeverity, code trc.Err, msg string) *Error {
	e := NewError(sev, code)
	e.Message = msg
	return e
}

func NewErrorWithIdxMsg(sev trc.ErrSeverity, code trc.Err, idx int64, msg string) *Error {
	e := NewErrorMsg(sev, code, msg)
	e.Idx = idx
	return e
}

// NewSectionError creates a structural configuration error tagged with the
// section that failed.
func NewSectionError(code trc.Err, section trc.Section, idx int64, msg string) *Error {
	e := NewErrorWithIdxMsg(trc.ErrSevError, code, idx, msg)
	e.Section = section
	return e
}

// WrapError creates an error carrying an underlying cause.
func WrapError(code trc.Err, cause error, msg string) *Error {
	e := NewErrorMsg(trc.ErrSevError, code, msg)
	e.Err = cause
	return e
}

// Errorf creates an error-severity error with a formatted message.
func Errorf(code trc.Err, format string, args ...interface{}) *Error {
	return NewErrorMsg(trc.ErrSevError, code, fmt.Sprintf(format, args...))
}

// Code returns a value that matches any *Error with the given code when used
// as the target of errors.Is.
func Code(code trc.Err) error {
	return &Error{Code: code, Section: trc.SectionNone, Idx: BadIdx}
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Error implements the standard error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	switch e.Sev {
	case trc.ErrSevError:
		sb.WriteString("ERROR:")
	case trc.ErrSevWarn:
		sb.WriteString("WARN :")
	case trc.ErrSevInfo:
		sb.WriteString("INFO :")
	default:
		return "LIBRARY INTERNAL ERROR: Invalid Error Object"
	}

	sb.WriteString(fmt.Sprintf("0x%04x ", uint32(e.Code)))

	if desc, ok := errorCodeDesc[e.Code]; ok {
		sb.WriteString(fmt.Sprintf("(%s) [%s]; ", desc.name, desc.msg))
	} else {
		sb.WriteString("(unknown); ")
	}

	if e.Section != trc.SectionNone {
		sb.WriteString(fmt.Sprintf("Section=%s; ", e.Section))
	}

	if e.Idx != BadIdx {
		sb.WriteString(fmt.Sprintf("Idx=%d; ", e.Idx))
	}

	sb.WriteString(e.Message)
	if e.Err != nil {
		if e.Message != "" {
			sb.WriteString(": ")
		}
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

type errDesc struct {
	name string
	msg  string
}

var errorCodeDesc = map[trc.Err]errDesc{
	trc.OK:                   {"TRC_OK", "No Error."},
	trc.ErrFail:              {"TRC_ERR_FAIL", "General failure."},
	trc.ErrCfgEmpty:          {"TRC_ERR_CFG_EMPTY", "Configuration message is empty."},
	trc.ErrCfgOversized:      {"TRC_ERR_CFG_OVERSIZED", "Configuration message exceeds the fixed blob size."},
	trc.ErrCfgShort:          {"TRC_ERR_CFG_SHORT", "Insufficient bytes for configuration section."},
	trc.ErrCfgPortRef:        {"TRC_ERR_CFG_PORT_REF", "Invalid port reference."},
	trc.ErrCfgNoSystemTracer: {"TRC_ERR_CFG_NO_SYSTEM_TRACER", "Mandatory system message tracer missing."},
	trc.ErrCfgBadEnum:        {"TRC_ERR_CFG_BAD_ENUM", "Reserved value in configuration field."},
	trc.ErrTrcSelector:       {"TRC_ERR_TRC_SELECTOR", "Tracer selector code not resolved."},
	trc.ErrTrcSelectorRange:  {"TRC_ERR_TRC_SELECTOR_RANGE", "Tracer selector index out of range."},
	trc.ErrTrcLSEncoding:     {"TRC_ERR_TRC_LS_ENCODING", "Invalid LS encoding."},
	trc.ErrTrcFieldLength:    {"TRC_ERR_TRC_FIELD_LENGTH", "Compressed field longer than its port."},
	trc.ErrTrcMemTarget:      {"TRC_ERR_TRC_MEM_TARGET", "Memory tracer slot id out of range."},
	trc.ErrTrcUnexpectedEOF:  {"TRC_ERR_TRC_UNEXPECTED_EOF", "Trace ended before end-of-trace message."},
	trc.ErrTrcNoInstances:    {"TRC_ERR_TRC_NO_INSTANCES", "No tracer instance for the system tracer."},
	trc.ErrLength:            {"TRC_ERR_LENGTH", "Bit vector length mismatch."},
	trc.ErrUnknownID:         {"TRC_ERR_UNKNOWN_ID", "Unknown identifier."},
	trc.ErrCtlNack:           {"TRC_ERR_CTL_NACK", "Control request not acknowledged."},
	trc.ErrCtlShortResponse:  {"TRC_ERR_CTL_SHORT_RESPONSE", "Control response too short."},
	trc.ErrCtlNotConnected:   {"TRC_ERR_CTL_NOT_CONNECTED", "Control channel not connected."},
	trc.ErrFileError:         {"TRC_ERR_FILE_ERROR", "File access error."},
	trc.ErrInvalidParamVal:   {"TRC_ERR_INVALID_PARAM_VAL", "Invalid value parameter passed to component."},
	trc.ErrLast:              {"TRC_ERR_LAST", "No error - error code end marker"},
}
