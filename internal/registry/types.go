// Package registry holds the persistent artifact health ledger: one record
// per tracked entity, each carrying an append-only history of test runs.
// The registry is an explicit value loaded at the start of an operation and
// saved after mutation; no package state survives between calls.
package registry

import (
	"time"

	"github.com/boshu2/depgate/internal/identity"
)

const (
	// SchemaVersion is the persisted registry schema version.
	SchemaVersion = 1

	// RequiredNovelRuns is the minimum number of distinct-input passing
	// runs required before a first-time entity counts as adequately tested.
	RequiredNovelRuns = 3
)

// TestRun is one recorded test execution for an entity. Runs are a ledger:
// once appended they are never mutated or removed, which keeps novelty and
// staleness auditable after the fact.
type TestRun struct {
	// Timestamp is when the run was recorded.
	Timestamp time.Time `json:"timestamp"`

	// InputFingerprint is the hash of the test input payload.
	InputFingerprint string `json:"input_fingerprint"`

	// Passed is the run outcome.
	Passed bool `json:"passed"`

	// Novel is true if no prior run on this entity used the same input
	// fingerprint. Evaluated against the entire history, never a window, so
	// replaying the same inputs can never farm novelty.
	Novel bool `json:"novel"`

	// FingerprintAtRun is the entity's content fingerprint at the time the
	// run was recorded. Captured here, not recomputed later, so staleness
	// detection survives mutation of the live entity record.
	FingerprintAtRun string `json:"fingerprint_at_run,omitempty"`
}

// Entity is the unit of test tracking.
type Entity struct {
	// ID is the stable identifier derived from (kind, logical path).
	ID string `json:"id"`

	// Kind classifies the entity (leaf-unit, composite-artifact, orchestrator).
	Kind identity.Kind `json:"kind,omitempty"`

	// Path is the normalized logical path, kept for reporting.
	Path string `json:"path,omitempty"`

	// ContentFingerprint is the caller-supplied hash of the entity's current
	// definition. Empty means the definition has never been observed.
	ContentFingerprint string `json:"content_fingerprint,omitempty"`

	// Children lists the entity ids this entity depends on. Insertion order
	// is preserved for reporting but is irrelevant to correctness.
	Children []string `json:"children,omitempty"`

	// Runs is the append-only test run history, oldest first.
	Runs []TestRun `json:"runs,omitempty"`
}

// Registry is the full persisted id -> entity mapping.
type Registry struct {
	// Version is the schema version tag.
	Version int `json:"version"`

	// Entities maps entity id to its record.
	Entities map[string]*Entity `json:"entities"`
}

// New returns an empty registry at the current schema version.
func New() *Registry {
	return &Registry{
		Version:  SchemaVersion,
		Entities: map[string]*Entity{},
	}
}

// Get returns the entity for id, or nil if it has never been recorded.
// An id referenced by some entity's children need not exist here; an
// unknown child is treated as never tested, not as an error.
func (r *Registry) Get(id string) *Entity {
	return r.Entities[id]
}

// Ensure returns the entity for id, creating an empty record if absent.
// New entities start with no runs, no children, and no content fingerprint.
func (r *Registry) Ensure(id string, kind identity.Kind) *Entity {
	if e, ok := r.Entities[id]; ok {
		if e.Kind == "" {
			e.Kind = kind
		}
		return e
	}
	e := &Entity{ID: id, Kind: kind}
	r.Entities[id] = e
	return e
}

// LatestRun returns the most recent run, or nil if none exist.
func (e *Entity) LatestRun() *TestRun {
	if len(e.Runs) == 0 {
		return nil
	}
	return &e.Runs[len(e.Runs)-1]
}

// HasSeenInput reports whether any prior run used the given input
// fingerprint.
func (e *Entity) HasSeenInput(inputFingerprint string) bool {
	for i := range e.Runs {
		if e.Runs[i].InputFingerprint == inputFingerprint {
			return true
		}
	}
	return false
}

// NovelPassingCount counts runs that were both novel and passing,
// deduplicated by input fingerprint across the whole history.
func (e *Entity) NovelPassingCount() int {
	seen := map[string]bool{}
	for i := range e.Runs {
		run := &e.Runs[i]
		if run.Novel && run.Passed && !seen[run.InputFingerprint] {
			seen[run.InputFingerprint] = true
		}
	}
	return len(seen)
}

// AddChild appends a child id, preserving insertion order and ignoring
// duplicates.
func (e *Entity) AddChild(id string) {
	for _, existing := range e.Children {
		if existing == id {
			return
		}
	}
	e.Children = append(e.Children, id)
}

// SetChildren replaces the children list, deduplicating while preserving
// first-seen order.
func (e *Entity) SetChildren(ids []string) {
	e.Children = nil
	for _, id := range ids {
		e.AddChild(id)
	}
}
