package seeder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/shashiranjanraj/seedkit/pkg/seederr"
)

// Recognized seed file extensions, in the order Locate probes them.
var Extensions = []string{".sql", ".go"}

// seedFileRe matches "<digits>_<anything>.<ext>". Go helper files in the
// seed package (doc.go, register.go) carry no numeric prefix and are ignored.
var seedFileRe = regexp.MustCompile(`^[0-9]+_.+$`)

// File is a seed file discovered on disk.
type File struct {
	Name string
	Path string
}

// IsSeedFile reports whether a file name looks like a seed file.
func IsSeedFile(name string) bool {
	if strings.HasSuffix(name, "_test.go") {
		return false
	}
	ext := filepath.Ext(name)
	known := false
	for _, e := range Extensions {
		if ext == e {
			known = true
			break
		}
	}
	return known && seedFileRe.MatchString(strings.TrimSuffix(name, ext))
}

// Discover lists the seed files in dir sorted ascending by file name.
// A missing directory yields no files.
func Discover(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("seeder: read %s: %w", dir, err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !IsSeedFile(e.Name()) {
			continue
		}
		files = append(files, File{Name: NameFromPath(e.Name()), Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i].Path) < filepath.Base(files[j].Path)
	})
	return files, nil
}

// Locate reconstructs the on-disk file for a recorded seed name.
func Locate(dir, name string) (string, bool) {
	for _, ext := range Extensions {
		p := filepath.Join(dir, name+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Loader resolves seed files to entry points: a registration compiled into
// the binary wins, otherwise SQL files are parsed from disk.
type Loader struct {
	Registry *Registry
}

// NewLoader returns a Loader over reg, or DefaultRegistry when reg is nil.
func NewLoader(reg *Registry) *Loader {
	if reg == nil {
		reg = DefaultRegistry
	}
	return &Loader{Registry: reg}
}

// Load resolves path. It fails with a seed_load error when neither the
// registry nor the SQL parser can produce a seed.
func (l *Loader) Load(path string) (*Seed, error) {
	name := NameFromPath(path)

	if s, ok := l.Registry.Lookup(name); ok {
		s.Path = path
		return &s, nil
	}

	switch filepath.Ext(path) {
	case ".sql":
		return loadSQL(name, path)
	case ".go":
		return nil, seederr.New(seederr.SeedLoad,
			fmt.Sprintf("%s is not compiled into this binary; build your project's seed command with the seed package imported", filepath.Base(path)))
	default:
		return nil, seederr.New(seederr.SeedLoad, "unrecognized seed file "+filepath.Base(path))
	}
}

func loadSQL(name, path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, seederr.Wrap(seederr.SeedLoad, "open "+filepath.Base(path), err)
	}
	defer f.Close()

	parsed, err := ParseSQL(f)
	if err != nil {
		return nil, seederr.Wrap(seederr.SeedLoad, "parse "+filepath.Base(path), err)
	}

	return &Seed{
		Name:   name,
		Path:   path,
		Apply:  execFunc(parsed.Apply),
		Revert: execFunc(parsed.Revert),
	}, nil
}
