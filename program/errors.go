package program

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorCode is a custom error raised by the tipping program.
type ErrorCode uint32

const (
	ErrInvalidTipper ErrorCode = 6000 + iota
	ErrCannotTipSelf
	ErrInvalidAmount
	ErrOverflow
)

var errorCodes = map[ErrorCode]struct {
	name string
	msg  string
}{
	ErrInvalidTipper: {"InvalidTipper", "The tipper in the tip account does not match the provided tipper"},
	ErrCannotTipSelf: {"CannotTipSelf", "You cannot tip yourself"},
	ErrInvalidAmount: {"InvalidAmount", "The tip amount must be greater than 0"},
	ErrOverflow:      {"OverflowError", "Arithmetic overflow when adding tip amount"},
}

func (c ErrorCode) Name() string {
	if e, ok := errorCodes[c]; ok {
		return e.name
	}
	return "Unknown"
}

func (c ErrorCode) Error() string {
	if e, ok := errorCodes[c]; ok {
		return e.msg
	}
	return fmt.Sprintf("unknown program error %d", uint32(c))
}

// systemAccountAlreadyInUse is SystemError::AccountAlreadyInUse, surfaced as
// Custom(0) when initialize tries to create an existing account.
const systemAccountAlreadyInUse = 0

const alreadyInUseLog = "already in use"

// TransactionError is a transaction failure reported by the cluster, either
// from preflight simulation or from the signature status.
type TransactionError struct {
	// InstructionIndex is -1 when the failure is not scoped to an instruction.
	InstructionIndex int
	// Kind is the cluster error name, e.g. "Custom", "InvalidAccountData", "BlockhashNotFound".
	Kind    string
	Custom  *uint32
	Logs    []string
	Message string
}

func (e *TransactionError) Error() string {
	if code, ok := e.Code(); ok {
		return code.Error()
	}
	if e.accountInUse() {
		return "tip account already in use"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.InstructionIndex >= 0 {
		if e.Custom != nil {
			return fmt.Sprintf("instruction %d failed: custom program error %d", e.InstructionIndex, *e.Custom)
		}
		return fmt.Sprintf("instruction %d failed: %s", e.InstructionIndex, e.Kind)
	}
	return "transaction failed: " + e.Kind
}

// Code returns the program error code when the failure was raised by the program.
func (e *TransactionError) Code() (ErrorCode, bool) {
	if e.Custom == nil {
		return 0, false
	}
	code := ErrorCode(*e.Custom)
	_, known := errorCodes[code]
	return code, known
}

// Is lets errors.Is match a TransactionError against an ErrorCode.
func (e *TransactionError) Is(target error) bool {
	want, ok := target.(ErrorCode)
	if !ok {
		return false
	}
	got, ok := e.Code()
	return ok && got == want
}

func (e *TransactionError) accountInUse() bool {
	if e.Custom != nil && *e.Custom == systemAccountAlreadyInUse {
		return true
	}
	if e.Kind != "" {
		return false
	}
	// nodes that strip the structured err still report the system program log
	for _, line := range e.Logs {
		if strings.Contains(line, alreadyInUseLog) {
			return true
		}
	}
	return false
}

// IsAccountInUse reports whether err is the benign failure of initializing a
// tip account that already exists.
func IsAccountInUse(err error) bool {
	var txErr *TransactionError
	if !errors.As(err, &txErr) {
		return false
	}
	return txErr.accountInUse()
}

// ParseTransactionError converts the JSON "err" value of a simulation result
// or signature status into a TransactionError. It returns nil for a nil raw
// value with no logs.
func ParseTransactionError(raw interface{}, logs []string) *TransactionError {
	if raw == nil && len(logs) == 0 {
		return nil
	}
	te := &TransactionError{InstructionIndex: -1, Logs: logs}
	switch v := raw.(type) {
	case string:
		te.Kind = v
	case map[string]interface{}:
		if ixErr, ok := v["InstructionError"]; ok {
			parseInstructionError(te, ixErr)
			break
		}
		for k := range v {
			te.Kind = k
		}
	}
	return te
}

func parseInstructionError(te *TransactionError, raw interface{}) {
	parts, ok := raw.([]interface{})
	if !ok || len(parts) != 2 {
		te.Kind = "InstructionError"
		return
	}
	if idx, ok := toUint64(parts[0]); ok {
		te.InstructionIndex = int(idx)
	}
	switch detail := parts[1].(type) {
	case string:
		te.Kind = detail
	case map[string]interface{}:
		if custom, ok := detail["Custom"]; ok {
			te.Kind = "Custom"
			if n, ok := toUint64(custom); ok {
				c := uint32(n)
				te.Custom = &c
			}
			return
		}
		for k := range detail {
			te.Kind = k
		}
	}
}

func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		return u, err == nil
	case int:
		return uint64(n), n >= 0
	case int64:
		return uint64(n), n >= 0
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		return u, err == nil
	case fmt.Stringer:
		// number types of other JSON decoders
		u, err := strconv.ParseUint(n.String(), 10, 64)
		return u, err == nil
	}
	return 0, false
}
