// Package health computes an entity's test health from its run history,
// its content fingerprint, and — recursively — the health of its declared
// children. Evaluation is a pure function over an explicitly supplied
// registry value; nothing here reads or writes files.
package health

import (
	"fmt"
	"strings"

	"github.com/boshu2/depgate/internal/registry"
)

// Status is an entity's health state.
type Status string

const (
	// StatusUnknown means the entity is absent from the registry entirely.
	// Treated as not healthy.
	StatusUnknown Status = "unknown"

	// StatusFailing means the most recent run failed. A single fresh
	// failure overrides any number of prior passes; there is no averaging.
	StatusFailing Status = "failing"

	// StatusStale means the content fingerprint changed since the most
	// recent run, so the recorded evidence no longer applies.
	StatusStale Status = "stale"

	// StatusTesting means the entity has fewer distinct-input passing runs
	// than required.
	StatusTesting Status = "testing"

	// StatusBlocked means the entity's own evidence is sufficient but a
	// descendant is unhealthy. A parent is never reported healthy while any
	// descendant is unhealthy.
	StatusBlocked Status = "blocked"

	// StatusHealthy means the entity and, when required, every descendant
	// passed all checks.
	StatusHealthy Status = "healthy"
)

// Result is the outcome of evaluating one entity.
type Result struct {
	// ID is the evaluated entity id.
	ID string `json:"id"`

	// Status is the aggregate health state. It is StatusHealthy only when
	// the entity's own evidence passes and (when children were required)
	// every descendant is healthy.
	Status Status `json:"status"`

	// NovelPassingCount is the number of distinct-input passing runs.
	NovelPassingCount int `json:"novel_passing_count"`

	// RequiredRuns is the novel passing run threshold in effect.
	RequiredRuns int `json:"required_runs"`

	// ChildrenHealthy is false if any child, at any depth, is unhealthy.
	ChildrenHealthy bool `json:"children_healthy"`

	// UnhealthyChildren lists the logical identifiers of direct children
	// (not grandchildren) that are not healthy, for diagnostic reporting.
	UnhealthyChildren []string `json:"unhealthy_children,omitempty"`
}

// Healthy reports whether the result is fully healthy, descendants included.
func (r *Result) Healthy() bool {
	return r.Status == StatusHealthy
}

// Evaluate computes the health of id against the registry using the default
// novel run threshold.
func Evaluate(reg *registry.Registry, id string, requireChildrenHealthy bool) *Result {
	return EvaluateWith(reg, id, requireChildrenHealthy, registry.RequiredNovelRuns)
}

// EvaluateWith is Evaluate with an explicit novel run threshold.
func EvaluateWith(reg *registry.Registry, id string, requireChildrenHealthy bool, requiredRuns int) *Result {
	if requiredRuns <= 0 {
		requiredRuns = registry.RequiredNovelRuns
	}
	return evaluate(reg, id, requireChildrenHealthy, requiredRuns, map[string]bool{})
}

// evaluate walks the dependency graph. visited holds the ids currently on
// the call stack: revisiting one means a cycle, which is broken by
// returning a synthetic healthy result instead of recursing further. The
// cycle participant's own run history still gates it wherever it appears
// elsewhere in the traversal.
func evaluate(reg *registry.Registry, id string, requireChildren bool, requiredRuns int, visited map[string]bool) *Result {
	if visited[id] {
		return &Result{
			ID:              id,
			Status:          StatusHealthy,
			RequiredRuns:    requiredRuns,
			ChildrenHealthy: true,
		}
	}
	visited[id] = true
	defer delete(visited, id)

	res := &Result{
		ID:              id,
		RequiredRuns:    requiredRuns,
		ChildrenHealthy: true,
	}

	e := reg.Get(id)
	if e == nil {
		res.Status = StatusUnknown
		return res
	}

	res.NovelPassingCount = e.NovelPassingCount()
	own := ownStatus(e, res.NovelPassingCount, requiredRuns)

	if requireChildren {
		for _, childID := range e.Children {
			child := evaluate(reg, childID, true, requiredRuns, visited)
			if child.Healthy() {
				continue
			}
			res.ChildrenHealthy = false
			res.UnhealthyChildren = append(res.UnhealthyChildren, displayName(reg, childID))
		}
	}

	res.Status = own
	if own == StatusHealthy && !res.ChildrenHealthy {
		res.Status = StatusBlocked
	}
	return res
}

// ownStatus applies the precedence-ordered checks over the entity's own
// evidence: failing beats stale beats testing.
func ownStatus(e *registry.Entity, novelPassing, requiredRuns int) Status {
	latest := e.LatestRun()
	switch {
	case latest != nil && !latest.Passed:
		return StatusFailing
	case latest != nil && latest.FingerprintAtRun != e.ContentFingerprint:
		return StatusStale
	case novelPassing < requiredRuns:
		return StatusTesting
	default:
		return StatusHealthy
	}
}

// displayName prefers the entity's logical path over its opaque id when the
// registry knows it.
func displayName(reg *registry.Registry, id string) string {
	if e := reg.Get(id); e != nil && e.Path != "" {
		return e.Path
	}
	return id
}

// Remediation returns a mechanical hint for making the entity healthy, or
// an empty string if it already is.
func Remediation(r *Result) string {
	switch r.Status {
	case StatusUnknown:
		return fmt.Sprintf("never tested; record %d distinct-input passing runs", r.RequiredRuns)
	case StatusFailing:
		return "most recent run failed; fix and record a passing run"
	case StatusStale:
		return "content changed since last recorded run; re-test against the current definition"
	case StatusTesting:
		remaining := r.RequiredRuns - r.NovelPassingCount
		return fmt.Sprintf("needs %d more distinct-input passing run(s)", remaining)
	case StatusBlocked:
		return fmt.Sprintf("unhealthy dependencies: %s", strings.Join(r.UnhealthyChildren, ", "))
	default:
		return ""
	}
}
