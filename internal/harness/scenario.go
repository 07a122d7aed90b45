package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/patcheck/internal/aggregate"
	"github.com/roach88/patcheck/internal/ir"
)

// Scenario defines one regression check.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario covers.
	Description string `yaml:"description"`

	// Rules is the path of the SVRF rule deck.
	Rules string `yaml:"rules"`

	// Layouts lists layout files or directories to validate.
	Layouts []string `yaml:"layouts"`

	// Assertions are checked against the run result.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is the fixed run ID. Defaults to testutil.DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion checks one property of a run.
type Assertion struct {
	// Type is one of tally, diagnostic or status.
	Type string `yaml:"type"`

	// Rule names the rule whose tallies are summed (tally).
	Rule string `yaml:"rule,omitempty"`

	// File and Cell narrow a tally or diagnostic assertion. File matches
	// the base name of the layout file. Empty matches everything.
	File string `yaml:"file,omitempty"`
	Cell string `yaml:"cell,omitempty"`

	// Expect is the summed tally (tally).
	Expect *ir.Tally `yaml:"expect,omitempty"`

	// Code is the diagnostic code to count (diagnostic).
	Code string `yaml:"code,omitempty"`

	// Count is the expected number of matching diagnostics (diagnostic).
	Count int `yaml:"count,omitempty"`

	// Status is the expected run status (status).
	Status string `yaml:"status,omitempty"`
}

// Assertion type constants.
const (
	AssertTally      = "tally"
	AssertDiagnostic = "diagnostic"
	AssertStatus     = "status"
)

// LoadScenario reads a scenario file and resolves its paths relative to
// the file's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // catches typos like "assertion:" vs "assertions:"
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	s.Rules = resolve(base, s.Rules)
	for i, l := range s.Layouts {
		s.Layouts[i] = resolve(base, l)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Rules == "" {
		return fmt.Errorf("rules is required")
	}
	if len(s.Layouts) == 0 {
		return fmt.Errorf("layouts list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := os.Stat(s.Rules); os.IsNotExist(err) {
		return fmt.Errorf("rule deck not found: %s", s.Rules)
	}
	for _, l := range s.Layouts {
		if _, err := os.Stat(l); os.IsNotExist(err) {
			return fmt.Errorf("layout not found: %s", l)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTally:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for tally", index)
		}
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for tally", index)
		}
	case AssertDiagnostic:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for diagnostic", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for diagnostic", index)
		}
	case AssertStatus:
		switch a.Status {
		case aggregate.StatusPassed, aggregate.StatusFailed, aggregate.StatusIncomplete:
		default:
			return fmt.Errorf("assertions[%d]: status must be one of %s, %s, %s", index,
				aggregate.StatusPassed, aggregate.StatusFailed, aggregate.StatusIncomplete)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
