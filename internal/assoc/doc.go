// Package assoc resolves rule zones to rule names and collects the test
// patterns each zone contains.
//
// # Resolution
//
// For each zone, in source order:
//
//  1. The zone centroid is computed; a zero-area zone aborts the cell.
//  2. The first rule-name label (source order) whose origin lies inside the
//     zone names it.
//  3. Otherwise the label nearest to the zone centroid (squared Euclidean
//     distance) names it; ties keep the earliest label.
//  4. A cell with zones but no labels fails with UNRESOLVED_RULE_NAME.
//
// Patterns belong to a zone when their centroid lies inside it. Labels are
// tested by origin, patterns by centroid; the two are not unified.
//
// # Name collisions
//
// When a later zone resolves to a name already seen in the cell, its
// patterns are merged into the existing list in source order without
// repeating a pattern, and a ZONE_NAME_COLLISION warning is recorded.
package assoc
