package testutil

// FixedRunID generates the same run ID every time.
//
// Unlike engine.FixedGenerator which returns IDs in sequence, this
// generator never runs out, which suits tests that run the same command
// repeatedly and compare output byte for byte.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID string

// DefaultRunID is used when a FixedRunID is empty.
const DefaultRunID = "00000000-0000-7000-8000-000000000001"

// Generate returns the fixed ID.
func (id FixedRunID) Generate() string {
	if id == "" {
		return DefaultRunID
	}
	return string(id)
}
