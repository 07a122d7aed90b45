// Package layout decodes layout files into cells of polygons and labels.
//
// Two formats are supported: GDSII stream files (.gds, .gds2) and a YAML
// fixture format (.yaml, .yml) convenient for hand-written test layouts.
// Decoders are selected by file extension through a Registry.
package layout

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/patcheck/internal/ir"
)

// Library is a decoded layout file.
type Library struct {
	Name string

	// DBUnitInUser is the size of one database unit in user units.
	DBUnitInUser float64

	// DBUnitInMeters is the size of one database unit in meters.
	DBUnitInMeters float64

	Cells []ir.Cell
}

// Decoder reads one layout file.
type Decoder interface {
	Decode(ctx context.Context, path string) (*Library, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, path string) (*Library, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, path string) (*Library, error) {
	return f(ctx, path)
}

// Registry selects a decoder by file extension.
type Registry struct {
	byExt map[string]Decoder
}

// NewRegistry returns a registry with the GDSII and YAML decoders registered.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Decoder)}
	r.Register(GDSDecoder{}, ".gds", ".gds2", ".gdsii")
	r.Register(YAMLDecoder{}, ".yaml", ".yml")
	return r
}

// Register binds a decoder to one or more extensions (with leading dot).
func (r *Registry) Register(d Decoder, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = d
	}
}

// Only returns a registry limited to the given extensions. Extensions
// without a registered decoder are dropped.
func (r *Registry) Only(exts ...string) *Registry {
	out := &Registry{byExt: make(map[string]Decoder)}
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if d, ok := r.byExt[ext]; ok {
			out.byExt[ext] = d
		}
	}
	return out
}

// Extensions lists registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a decoder is registered for the path's extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Decode decodes path with the decoder registered for its extension.
func (r *Registry) Decode(ctx context.Context, path string) (*Library, error) {
	ext := strings.ToLower(filepath.Ext(path))
	d, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("no layout decoder for extension %q", ext)
	}
	lib, err := d.Decode(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(lib.Cells) == 0 {
		return nil, fmt.Errorf("no cells found in %s", path)
	}
	return lib, nil
}

// Discover lists the files in dir whose extension is in exts, sorted.
// Subdirectories are not scanned.
func Discover(dir string, exts []string) ([]string, error) {
	want := make(map[string]bool, len(exts))
	for _, ext := range exts {
		want[strings.ToLower(ext)] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan layout dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !want[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Expand turns command-line inputs into layout files. Directories are
// scanned with Discover for the registered extensions; plain files are
// kept as given. Paths are cleaned, and the result is sorted and free of
// duplicates.
func (r *Registry) Expand(inputs []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("layout input: %w", err)
		}
		if !info.IsDir() {
			add(in)
			continue
		}
		found, err := Discover(in, r.Extensions())
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}
