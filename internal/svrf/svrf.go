// Package svrf reads rule checks and their descriptions from an SVRF rule
// deck. Only the check names and leading @ comments are extracted; the
// check statements themselves are ignored.
package svrf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/roach88/patcheck/internal/ir"
)

// ErrDuplicateRule is returned when a rule deck names the same check twice.
var ErrDuplicateRule = errors.New("duplicate rule check")

// blockRE matches a rule check block: NAME { body }. Bodies cannot nest.
var blockRE = regexp.MustCompile(`([A-Za-z0-9_.]+)\s*\{([^}]*)\}`)

// Parse reads a rule deck and returns the declared rule checks in file
// order. Blocks without a leading @ comment line are not rule checks and
// are skipped.
func Parse(r io.Reader) ([]ir.RuleSpec, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rule deck: %w", err)
	}

	var rules []ir.RuleSpec
	seen := make(map[string]int)

	for _, m := range blockRE.FindAllSubmatchIndex(src, -1) {
		name := ir.NormalizeName(string(src[m[2]:m[3]]))
		comment, ok := leadingComment(string(src[m[4]:m[5]]))
		if !ok {
			continue
		}

		line := 1 + bytes.Count(src[:m[2]], []byte("\n"))
		if first, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s at line %d (first at line %d)", ErrDuplicateRule, name, line, first)
		}
		seen[name] = line

		rules = append(rules, ir.RuleSpec{Name: name, Comment: comment})
	}
	return rules, nil
}

// ParseFile reads the rule deck at path.
func ParseFile(path string) ([]ir.RuleSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule deck: %w", err)
	}
	defer f.Close()

	rules, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Names returns the rule names in declaration order.
func Names(rules []ir.RuleSpec) []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

// leadingComment joins the run of @ lines at the top of a block body.
func leadingComment(body string) (string, bool) {
	var parts []string
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@") {
			break
		}
		parts = append(parts, strings.TrimSpace(line[1:]))
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}
