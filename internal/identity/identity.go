// Package identity maps (kind, logical path) pairs to stable entity ids.
// The mapping is a pure function: the same pair yields the same id across
// process restarts and across platforms, independent of path separator and
// casing conventions.
package identity

import (
	"strings"

	"github.com/boshu2/depgate/internal/fingerprint"
)

// Kind classifies an entity in the dependency graph.
type Kind string

const (
	// KindLeafUnit is an entity with no children; the smallest tested granule.
	KindLeafUnit Kind = "leaf-unit"

	// KindCompositeArtifact is an entity composed of leaf units and/or other
	// composite artifacts via its children list.
	KindCompositeArtifact Kind = "composite-artifact"

	// KindOrchestrator is a composite artifact additionally subject to the
	// top-level promotion policy. The distinction affects which external
	// policy invokes the gate, not the health algorithm.
	KindOrchestrator Kind = "orchestrator"
)

// AllKinds returns all valid kinds.
func AllKinds() []Kind {
	return []Kind{KindLeafUnit, KindCompositeArtifact, KindOrchestrator}
}

// kindAliases maps alternative spellings to canonical kinds.
var kindAliases = map[string]Kind{
	// Canonical names
	"leaf-unit":          KindLeafUnit,
	"composite-artifact": KindCompositeArtifact,
	"orchestrator":       KindOrchestrator,

	// Aliases with underscore
	"leaf_unit":          KindLeafUnit,
	"composite_artifact": KindCompositeArtifact,

	// Short aliases
	"leaf":      KindLeafUnit,
	"composite": KindCompositeArtifact,
	"orch":      KindOrchestrator,
}

// ParseKind resolves a kind name or alias. Returns false for unknown names.
func ParseKind(s string) (Kind, bool) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	return k, ok
}

// ResolveID derives the stable entity id for a (kind, logicalPath) pair.
// The path is normalized before hashing and the kind is prefixed so that
// the same path under different kinds never collides. Malformed input
// (empty path) still yields a deterministic id rather than an error, since
// callers may legitimately probe speculative ids.
func ResolveID(kind Kind, logicalPath string) string {
	return string(kind) + ":" + fingerprint.String(NormalizePath(logicalPath))
}

// NormalizePath canonicalizes a logical path: backslashes become forward
// slashes, runs of separators collapse, casing is folded, and trailing
// separators are dropped.
func NormalizePath(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
