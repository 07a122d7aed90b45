package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	base := errors.New("zero area")
	err := NewDegenerateError("TOP", "zone", 2, base)

	assert.Equal(t, "DEGENERATE_GEOMETRY: centroid undefined for zero-area polygon (cell=TOP, zone=2): zero area", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestErrorMessage_FileOnly(t *testing.T) {
	err := NewDecodeError("a.gds", errors.New("truncated record"))
	assert.Equal(t, "DECODE_FAILURE: layout decode failed (file=a.gds): truncated record", err.Error())
}

func TestErrorPredicates_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("process cell: %w", NewUnresolvedError("TOP", 0))

	assert.True(t, IsUnresolved(wrapped))
	assert.False(t, IsDegenerate(wrapped))
	assert.False(t, IsDecodeFailure(wrapped))
	assert.Equal(t, CodeUnresolvedRuleName, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}
