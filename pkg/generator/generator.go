// Package generator scaffolds new seed files.
//
// File names are "<prefix>_<slug>.<ext>". The prefix is either a
// 20060102150405 timestamp or a zero-padded sequence number; a project must
// stick to one policy, since the runner orders seeds by file name.
package generator

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shashiranjanraj/seedkit/config"
	"github.com/shashiranjanraj/seedkit/pkg/seeder"
	"github.com/shashiranjanraj/seedkit/pkg/seederr"
)

const (
	timestampLayout = "20060102150405"
	sequenceWidth   = 5

	// DefaultMarker identifies rows created by scaffolded seeds.
	DefaultMarker = "example@example.com"
)

var (
	prefixRe  = regexp.MustCompile(`^([0-9]+)_`)
	nonWordRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// Generator writes new seed files into Dir.
type Generator struct {
	Root      string // project root holding go.mod and .seedkit/stubs
	Dir       string // seed directory; relative paths are joined to Root
	Numbering string // config.NumberingTimestamp or config.NumberingSequence
	Template  string // TemplateGo, TemplateSQL, or "" to detect
	Now       func() time.Time
	Log       *slog.Logger
}

// Result describes a Generate call. Created is false when the target
// already existed and nothing was written.
type Result struct {
	Name    string
	Path    string
	Created bool
}

// New returns a Generator rooted at root with the given seed dir and
// numbering policy.
func New(root, dir, numbering string, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{Root: root, Dir: dir, Numbering: numbering, Now: time.Now, Log: log}
}

func (g *Generator) seedDir() string {
	if filepath.IsAbs(g.Dir) {
		return g.Dir
	}
	return filepath.Join(g.Root, g.Dir)
}

// Generate creates a new seed file for name. An existing target is reported
// and left untouched.
func (g *Generator) Generate(name string) (Result, error) {
	slug := Slug(name)
	if slug == "" {
		return Result{}, seederr.New(seederr.Validation, "seed name cannot be empty")
	}

	dir := g.seedDir()
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, fmt.Errorf("generator: create %s: %w", dir, err)
		}
		g.Log.Info("seed directory created", "dir", g.Dir)
	}

	variant, err := g.variant()
	if err != nil {
		return Result{}, err
	}

	prefix, err := g.nextPrefix(dir)
	if err != nil {
		return Result{}, err
	}

	seedName := prefix + "_" + slug
	path := filepath.Join(dir, seedName+"."+variant)

	if _, err := os.Stat(path); err == nil {
		g.Log.Warn("seed already exists, not overwriting", "file", filepath.Base(path))
		return Result{Name: seedName, Path: path}, nil
	}

	content, err := renderStub(g.Root, "seed_"+variant, StubData{
		Name:       seedName,
		Package:    packageName(dir),
		Table:      slug,
		ApplyFunc:  "apply" + pascal(slug) + prefix,
		RevertFunc: "revert" + pascal(slug) + prefix,
		Marker:     DefaultMarker,
	})
	if err != nil {
		return Result{}, fmt.Errorf("generator: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			g.Log.Warn("seed already exists, not overwriting", "file", filepath.Base(path))
			return Result{Name: seedName, Path: path}, nil
		}
		return Result{}, fmt.Errorf("generator: create %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return Result{}, fmt.Errorf("generator: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("generator: close %s: %w", path, err)
	}

	g.Log.Info("seed created", "file", g.relative(path), "template", variant)
	return Result{Name: seedName, Path: path, Created: true}, nil
}

func (g *Generator) variant() (string, error) {
	switch g.Template {
	case TemplateGo, TemplateSQL:
		return g.Template, nil
	}
	variant, module, err := DetectTemplate(g.Root)
	if err != nil {
		return "", err
	}
	if module != "" {
		g.Log.Debug("go.mod detected", "module", module)
	}
	return variant, nil
}

// nextPrefix returns a prefix strictly greater than every prefix already in
// dir, so two generations in the same second still produce distinct files.
func (g *Generator) nextPrefix(dir string) (string, error) {
	existing, err := existingPrefixes(dir)
	if err != nil {
		return "", err
	}

	var highest string
	for _, p := range existing {
		if len(p) > len(highest) || (len(p) == len(highest) && p > highest) {
			highest = p
		}
	}

	if g.Numbering == config.NumberingSequence {
		if len(highest) == len(timestampLayout) {
			g.Log.Warn("seed directory uses timestamp prefixes but numbering is sequence; ordering will break", "dir", g.Dir)
		}
		n := 0
		if highest != "" {
			n, err = strconv.Atoi(highest)
			if err != nil {
				return "", fmt.Errorf("generator: bad prefix %q: %w", highest, err)
			}
		}
		return fmt.Sprintf("%0*d", sequenceWidth, n+1), nil
	}

	now := g.Now().UTC()
	candidate := now.Format(timestampLayout)
	if highest == "" {
		return candidate, nil
	}
	if len(highest) != len(timestampLayout) {
		g.Log.Warn("seed directory uses sequence prefixes but numbering is timestamp; ordering will break", "dir", g.Dir)
		return candidate, nil
	}
	if candidate > highest {
		return candidate, nil
	}
	last, err := time.Parse(timestampLayout, highest)
	if err != nil {
		return "", fmt.Errorf("generator: bad prefix %q: %w", highest, err)
	}
	return last.Add(time.Second).Format(timestampLayout), nil
}

func existingPrefixes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("generator: read %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !seeder.IsSeedFile(e.Name()) {
			continue
		}
		if m := prefixRe.FindStringSubmatch(e.Name()); m != nil {
			out = append(out, m[1])
		}
	}
	return out, nil
}

func (g *Generator) relative(path string) string {
	if rel, err := filepath.Rel(g.Root, path); err == nil {
		return rel
	}
	return path
}

// Slug lowercases name and collapses every run of non-alphanumerics into a
// single underscore.
func Slug(name string) string {
	s := nonWordRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return strings.Trim(s, "_")
}

func pascal(slug string) string {
	var b strings.Builder
	for _, part := range strings.Split(slug, "_") {
		if part == "" {
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// packageName derives a Go package name from the seed directory.
func packageName(dir string) string {
	name := Slug(filepath.Base(dir))
	name = strings.ReplaceAll(name, "_", "")
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return "seeders"
	}
	return name
}
