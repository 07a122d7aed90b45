// Package ir holds the shared data model for pattern validation.
//
// This package contains type definitions only. Every other internal package
// imports ir; ir imports nothing internal except geom. Layout records
// (Polygon, Label, Cell) are immutable after decoding. Derived records
// (Pattern, Tally, Key) are produced per cell and folded into the run result.
//
// Key design constraints:
//   - (layer, purpose) pairs identify semantic roles; see LayerPurpose
//   - A Tally is a plain value; adding tallies is associative and commutative
//   - Errors carry a Code plus enough context (file, cell, role, index) to diagnose
package ir
