// Package recorder appends test-run outcomes to an entity's history. The
// run history is a ledger: entries are only ever appended, never mutated or
// removed, and each append is a load-mutate-save critical section against
// the registry file.
package recorder

import (
	"time"

	"github.com/boshu2/depgate/internal/identity"
	"github.com/boshu2/depgate/internal/registry"
)

// Record appends a run for id with the given input fingerprint and outcome.
// The entity is created lazily if this is its first run. Novelty is
// computed against the entity's entire prior history: an input fingerprint
// that has ever been seen before is not novel, so replaying old inputs can
// never accumulate fresh evidence. The run captures the entity's content
// fingerprint as it stands at recording time.
func Record(store *registry.Store, id string, kind identity.Kind, inputFingerprint string, passed bool) (*registry.TestRun, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if inputFingerprint == "" {
		return nil, ErrEmptyInputFingerprint
	}

	var run registry.TestRun
	_, err := store.Mutate(func(reg *registry.Registry) error {
		e := reg.Ensure(id, kind)
		run = registry.TestRun{
			Timestamp:        time.Now().UTC(),
			InputFingerprint: inputFingerprint,
			Passed:           passed,
			Novel:            !e.HasSeenInput(inputFingerprint),
			FingerprintAtRun: e.ContentFingerprint,
		}
		e.Runs = append(e.Runs, run)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Observe records the current definition of an entity: its content
// fingerprint and, when supplied, its declared children. This is how silent
// edits are caught later — a run recorded before the new fingerprint no
// longer vouches for the current content. Passing nil children leaves the
// existing list untouched.
func Observe(store *registry.Store, id string, kind identity.Kind, path, contentFingerprint string, children []string) (*registry.Entity, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	var observed *registry.Entity
	_, err := store.Mutate(func(reg *registry.Registry) error {
		e := reg.Ensure(id, kind)
		if path != "" {
			e.Path = path
		}
		if contentFingerprint != "" {
			e.ContentFingerprint = contentFingerprint
		}
		if children != nil {
			e.SetChildren(children)
		}
		observed = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return observed, nil
}
