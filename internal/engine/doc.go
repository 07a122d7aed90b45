// Package engine runs pattern validation over a set of layout files.
//
// For every cell of every file the engine extracts role markers, resolves
// rule zones to rule names, classifies the patterns of each rule against
// the error markers and hands the per-rule tallies to an accumulator.
//
// CONCURRENCY:
//
// Files are decoded and processed in parallel, bounded by Workers. The
// cells of one file are processed in order by that file's worker. Cell
// processing is a pure function of the cell and the convention, so the
// accumulator is the only shared state. Results do not depend on how
// files were scheduled.
//
// FAILURES:
//
// A file that cannot be decoded is skipped and recorded as a fatal
// DECODE_FAILURE diagnostic. A cell with degenerate geometry or with
// zones but no labels is skipped the same way. Neither stops the run.
// Run fails with ErrNoUsableInput only when no cell of any file could be
// processed.
package engine
