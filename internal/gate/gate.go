// Package gate decides whether a build or integration operation may
// proceed, based on the health of the operation's declared dependencies.
// The decision is pure over a supplied registry value and always carries
// structured reasons: a denied operation names every unhealthy dependency
// and how to remediate it, never a bare "denied".
package gate

import (
	"fmt"

	"github.com/boshu2/depgate/internal/health"
	"github.com/boshu2/depgate/internal/identity"
	"github.com/boshu2/depgate/internal/registry"
)

// OperationKind distinguishes creating a brand-new entity from modifying an
// already-registered one. Callers state it explicitly; the gate never
// re-derives it from operation names.
type OperationKind string

const (
	// OpCreate introduces a brand-new entity. Untested dependencies are
	// permitted with a warning: new composition on top of not-yet-tested
	// leaves is part of incremental top-down construction.
	OpCreate OperationKind = "create"

	// OpUpdate modifies an existing, previously-integrated entity.
	// Unhealthy dependencies are hard violations: integrated work must not
	// regress on top of broken foundations.
	OpUpdate OperationKind = "update"
)

// ParseOperationKind resolves an operation kind name. Returns false for
// unknown names.
func ParseOperationKind(s string) (OperationKind, bool) {
	switch OperationKind(s) {
	case OpCreate:
		return OpCreate, true
	case OpUpdate:
		return OpUpdate, true
	default:
		return "", false
	}
}

// Proposed describes the artifact the operation wants to build or integrate.
type Proposed struct {
	// Kind classifies the proposed entity.
	Kind identity.Kind `json:"kind"`

	// Path is the proposed entity's logical path.
	Path string `json:"path"`

	// ContentFingerprint is the hash of the proposed definition, when the
	// caller has one.
	ContentFingerprint string `json:"content_fingerprint,omitempty"`
}

// Dependency is one declared dependency of the proposed entity. Extraction
// of the list from a raw artifact description is the caller's concern.
type Dependency struct {
	// Kind classifies the dependency.
	Kind identity.Kind `json:"kind"`

	// Path is the dependency's logical path.
	Path string `json:"path"`
}

// Finding describes one dependency that is not fully healthy.
type Finding struct {
	// Dependency is the dependency's logical path as declared.
	Dependency string `json:"dependency"`

	// ID is the resolved entity id.
	ID string `json:"id"`

	// Status is the dependency's health status.
	Status health.Status `json:"status"`

	// Message is the mechanical remediation hint.
	Message string `json:"message"`
}

// Decision is the gate verdict for one operation.
type Decision struct {
	// Allowed is true when no violations were found.
	Allowed bool `json:"allowed"`

	// Operation is the operation kind that was evaluated.
	Operation OperationKind `json:"operation"`

	// Proposed is the resolved id of the proposed entity.
	Proposed string `json:"proposed"`

	// Violations are hard failures; any violation denies the operation.
	Violations []Finding `json:"violations,omitempty"`

	// Warnings are flagged but do not deny.
	Warnings []Finding `json:"warnings,omitempty"`
}

// EvaluateOperation checks every declared dependency with children
// required, then classifies each unhealthy one as a violation (update) or
// a warning (create). The create/update asymmetry is deliberate policy: a
// dependency tree may be built top-down speculatively, but modifying
// already-integrated work on top of untested foundations is blocked.
func EvaluateOperation(reg *registry.Registry, op OperationKind, proposed Proposed, deps []Dependency) *Decision {
	return EvaluateOperationWith(reg, op, proposed, deps, registry.RequiredNovelRuns)
}

// EvaluateOperationWith is EvaluateOperation with an explicit novel run
// threshold.
func EvaluateOperationWith(reg *registry.Registry, op OperationKind, proposed Proposed, deps []Dependency, requiredRuns int) *Decision {
	decision := &Decision{
		Operation: op,
		Proposed:  identity.ResolveID(proposed.Kind, proposed.Path),
	}

	for _, dep := range deps {
		id := identity.ResolveID(dep.Kind, dep.Path)
		res := health.EvaluateWith(reg, id, true, requiredRuns)
		if res.Healthy() {
			continue
		}

		finding := Finding{
			Dependency: dep.Path,
			ID:         id,
			Status:     res.Status,
			Message:    health.Remediation(res),
		}
		switch op {
		case OpCreate:
			decision.Warnings = append(decision.Warnings, finding)
		default:
			decision.Violations = append(decision.Violations, finding)
		}
	}

	decision.Allowed = len(decision.Violations) == 0
	return decision
}

// Summary renders a one-line human-readable verdict.
func (d *Decision) Summary() string {
	if d.Allowed && len(d.Warnings) == 0 {
		return fmt.Sprintf("allowed: all dependencies healthy (%s)", d.Operation)
	}
	if d.Allowed {
		return fmt.Sprintf("allowed with %d warning(s) (%s)", len(d.Warnings), d.Operation)
	}
	return fmt.Sprintf("denied: %d unhealthy dependenc(ies) (%s)", len(d.Violations), d.Operation)
}
