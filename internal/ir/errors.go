package ir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes validation errors and warnings.
type ErrorCode string

const (
	// CodeDegenerateGeometry indicates a zero-area polygon where a centroid was needed.
	CodeDegenerateGeometry ErrorCode = "DEGENERATE_GEOMETRY"

	// CodeUnresolvedRuleName indicates a rule zone in a cell with no rule-name labels.
	CodeUnresolvedRuleName ErrorCode = "UNRESOLVED_RULE_NAME"

	// CodeDecodeFailure indicates a layout file could not be decoded.
	CodeDecodeFailure ErrorCode = "DECODE_FAILURE"

	// CodeUnknownRule indicates a resolved rule name absent from the rule set.
	CodeUnknownRule ErrorCode = "UNKNOWN_RULE"

	// CodeZoneNameCollision indicates two zones in a cell resolved to the same rule name.
	CodeZoneNameCollision ErrorCode = "ZONE_NAME_COLLISION"
)

// Error is a validation error with structured context.
//
// Index is the polygon's position within its role (zones or patterns) and is
// -1 when not applicable.
type Error struct {
	Code    ErrorCode
	Message string
	File    string
	Cell    string
	Role    string
	Index   int
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var ctx []string
	if e.File != "" {
		ctx = append(ctx, "file="+e.File)
	}
	if e.Cell != "" {
		ctx = append(ctx, "cell="+e.Cell)
	}
	if e.Role != "" && e.Index >= 0 {
		ctx = append(ctx, fmt.Sprintf("%s=%d", e.Role, e.Index))
	}

	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(ctx) > 0 {
		msg += " (" + strings.Join(ctx, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewDegenerateError reports a zero-area polygon in a cell.
func NewDegenerateError(cell, role string, index int, err error) *Error {
	return &Error{
		Code:    CodeDegenerateGeometry,
		Message: "centroid undefined for zero-area polygon",
		Cell:    cell,
		Role:    role,
		Index:   index,
		Err:     err,
	}
}

// NewUnresolvedError reports a zone that cannot be named because the cell has no labels.
func NewUnresolvedError(cell string, zone int) *Error {
	return &Error{
		Code:    CodeUnresolvedRuleName,
		Message: "no rule-name labels in cell",
		Cell:    cell,
		Role:    "zone",
		Index:   zone,
	}
}

// NewDecodeError wraps a layout decoder failure for one file.
func NewDecodeError(file string, err error) *Error {
	return &Error{
		Code:    CodeDecodeFailure,
		Message: "layout decode failed",
		File:    file,
		Index:   -1,
		Err:     err,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsDegenerate reports whether err is a degenerate-geometry error.
func IsDegenerate(err error) bool {
	return CodeOf(err) == CodeDegenerateGeometry
}

// IsUnresolved reports whether err is an unresolved-rule-name error.
func IsUnresolved(err error) bool {
	return CodeOf(err) == CodeUnresolvedRuleName
}

// IsDecodeFailure reports whether err is a decode failure.
func IsDecodeFailure(err error) bool {
	return CodeOf(err) == CodeDecodeFailure
}
