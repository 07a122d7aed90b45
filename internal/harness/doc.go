// Package harness runs regression scenarios: a rule deck and a set of
// layout files together with the outcome they must produce.
//
// A scenario file is YAML:
//
//	name: squares
//	description: one pattern in each bucket
//	rules: ../decks/fixture.svrf
//	layouts: [../layouts/squares.gds]
//	assertions:
//	  - type: tally
//	    rule: check_name
//	    expect: {good_pass: 1, good_fail: 1, bad_pass: 1, bad_fail: 1}
//	  - type: status
//	    status: FAILED
//
// Paths are relative to the scenario file. Runs use a fixed run ID, start
// time and host, so reports are byte-for-byte reproducible and can be
// compared against golden files.
package harness
