package ir

// Tally counts pattern outcomes for one rule in one cell.
//
// "Pass" means the pattern behaved as its author intended: a good pattern
// without an error marker, or a bad pattern with one.
type Tally struct {
	GoodPass int `json:"good_pass" yaml:"good_pass"`
	GoodFail int `json:"good_fail" yaml:"good_fail"`
	BadPass  int `json:"bad_pass" yaml:"bad_pass"`
	BadFail  int `json:"bad_fail" yaml:"bad_fail"`
}

// Add returns the field-wise sum of t and o.
func (t Tally) Add(o Tally) Tally {
	return Tally{
		GoodPass: t.GoodPass + o.GoodPass,
		GoodFail: t.GoodFail + o.GoodFail,
		BadPass:  t.BadPass + o.BadPass,
		BadFail:  t.BadFail + o.BadFail,
	}
}

// Good is the number of good patterns.
func (t Tally) Good() int { return t.GoodPass + t.GoodFail }

// Bad is the number of bad patterns.
func (t Tally) Bad() int { return t.BadPass + t.BadFail }

// Pass is the number of patterns that behaved as intended.
func (t Tally) Pass() int { return t.GoodPass + t.BadPass }

// Fail is the number of patterns that did not behave as intended.
func (t Tally) Fail() int { return t.GoodFail + t.BadFail }

// Total is the number of patterns counted.
func (t Tally) Total() int { return t.Good() + t.Bad() }

// IsZero reports whether nothing was counted.
func (t Tally) IsZero() bool { return t == Tally{} }

// Key identifies one tally in a run.
type Key struct {
	Rule string `json:"rule"`
	File string `json:"file"`
	Cell string `json:"cell"`
}
