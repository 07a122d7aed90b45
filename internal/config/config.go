// Package config loads patcheck settings from an optional CUE file.
//
// The file is unified with an embedded #Config schema, so unknown fields,
// out-of-range layer numbers and bad worker counts are rejected with the
// position of the offending value. Fields left out take the schema defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/patcheck/internal/extract"
	"github.com/roach88/patcheck/internal/ir"
)

// FileName is the config file looked up in the working directory.
const FileName = "patcheck.cue"

//go:embed schema.cue
var schemaSrc string

// Config is the resolved configuration.
type Config struct {
	Convention extract.Convention
	Workers    int
	Database   string
	Extensions []string

	// Source is the file the config was read from, empty for defaults.
	Source string
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Convention: extract.DefaultConvention(),
		Workers:    runtime.NumCPU(),
	}
}

// Error is a config error with the CUE position when one is known.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Find returns the path of FileName in dir, or "" if there is none.
func Find(dir string) string {
	path := filepath.Join(dir, FileName)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// Load reads the config at path. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(src, path)
	if err != nil {
		return nil, err
	}
	cfg.Source = path
	return cfg, nil
}

// Parse validates src against the schema and resolves it.
func Parse(src []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	cfg := Default()
	roles := []struct {
		field string
		dst   *ir.LayerPurpose
	}{
		{"error_marker", &cfg.Convention.ErrorMarker},
		{"rule_zone", &cfg.Convention.RuleZone},
		{"pattern", &cfg.Convention.Pattern},
		{"rule_label", &cfg.Convention.RuleLabel},
	}
	for _, r := range roles {
		lp, err := layerPurpose(v.LookupPath(cue.ParsePath("convention." + r.field)))
		if err != nil {
			return nil, err
		}
		*r.dst = lp
	}

	if w := v.LookupPath(cue.ParsePath("workers")); w.Exists() {
		n, err := w.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		cfg.Workers = int(n)
	}

	if d := v.LookupPath(cue.ParsePath("database")); d.Exists() {
		s, err := d.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		cfg.Database = s
	}

	if e := v.LookupPath(cue.ParsePath("extensions")); e.Exists() {
		iter, err := e.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			cfg.Extensions = append(cfg.Extensions, s)
		}
	}

	return cfg, nil
}

func layerPurpose(v cue.Value) (ir.LayerPurpose, error) {
	var lp ir.LayerPurpose
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"layer", &lp.Layer},
		{"purpose", &lp.Purpose},
	} {
		fv, _ := v.LookupPath(cue.ParsePath(f.name)).Default()
		n, err := fv.Int64()
		if err != nil {
			return ir.LayerPurpose{}, formatCUEError(err)
		}
		*f.dst = int(n)
	}
	return lp, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &Error{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &Error{Field: "cue", Message: first.Error()}
}
