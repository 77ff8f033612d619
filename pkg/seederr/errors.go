// Package seederr defines typed errors with categories for seed generation,
// tracking and execution.
//
// Soft kinds are absorbed where they are detected (logged, the pass goes on).
// Every other kind unwinds to the command handler, which prints it and exits
// with status 1.
package seederr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Validation indicates an empty or invalid user-supplied seed name.
	Validation Kind = "validation"
	// Collision indicates the generated seed file already exists.
	Collision Kind = "collision"
	// StorageMissing indicates the ledger table does not exist yet.
	StorageMissing Kind = "storage_missing"
	// Storage indicates any other failure reading or writing the ledger.
	Storage Kind = "storage"
	// SeedLoad indicates a seed file could not be resolved to entry points.
	SeedLoad Kind = "seed_load"
	// SeedContract indicates a loaded seed lacks the requested entry point.
	SeedContract Kind = "seed_contract"
	// SeedExecution indicates the seed's own logic failed.
	SeedExecution Kind = "seed_execution"
	// Migration indicates the external schema migration command failed.
	Migration Kind = "migration"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the outermost *E in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsSoft reports whether the kind is absorbed at the point of detection.
func IsSoft(kind Kind) bool {
	switch kind {
	case Collision, SeedContract, StorageMissing:
		return true
	}
	return false
}
