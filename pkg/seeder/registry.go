// Package seeder resolves seed files to callable entry points.
//
// A seed is either a Go file compiled into the running binary, which
// registers itself from init():
//
//	func init() {
//	    seeder.Register(upUsers, downUsers)
//	}
//
//	func upUsers(ctx context.Context, db *gorm.DB) error   { … }
//	func downUsers(ctx context.Context, db *gorm.DB) error { … }
//
// or a SQL file split into sections:
//
//	-- +seed Apply
//	INSERT INTO users (email) VALUES ('example@example.com') ON CONFLICT DO NOTHING;
//
//	-- +seed Revert
//	DELETE FROM users WHERE email = 'example@example.com';
//
// Seed names are the file name without its extension, e.g.
// "20260101120000_users".
package seeder

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"
)

// Func is the signature of a seed entry point.
type Func func(ctx context.Context, db *gorm.DB) error

// Seed is a resolved seed with its entry points. Revert may be nil, and Apply
// may be nil for a malformed seed that is skipped with a warning.
type Seed struct {
	Name   string
	Path   string
	Apply  Func
	Revert Func
}

// Registry holds Go seeds compiled into the binary.
type Registry struct {
	mu    sync.Mutex
	seeds map[string]Seed
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{seeds: make(map[string]Seed)}
}

// DefaultRegistry receives Register calls made from seed files' init().
var DefaultRegistry = NewRegistry()

// Register adds a Go seed to DefaultRegistry under the name of the calling
// file. Call it from init() in the seed file.
func Register(apply, revert Func) {
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		panic("seeder: cannot determine caller file")
	}
	DefaultRegistry.Add(NameFromPath(file), file, apply, revert)
}

// RegisterNamed adds a Go seed to DefaultRegistry under an explicit name.
func RegisterNamed(name string, apply, revert Func) {
	DefaultRegistry.Add(name, "", apply, revert)
}

// Add registers a seed. Registering the same name twice panics: two seeds
// sharing one ledger key would make the ledger ambiguous.
func (r *Registry) Add(name, path string, apply, revert Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.seeds[name]; dup {
		panic(fmt.Sprintf("seeder: duplicate seed %q", name))
	}
	r.seeds[name] = Seed{Name: name, Path: path, Apply: apply, Revert: revert}
}

// Lookup returns the registered seed for name.
func (r *Registry) Lookup(name string) (Seed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.seeds[name]
	return s, ok
}

// Names returns every registered seed name in ascending order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.seeds))
	for n := range r.seeds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NameFromPath derives a seed name from a file path.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
