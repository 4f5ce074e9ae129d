package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/boshu2/depgate/internal/gate"
	"github.com/boshu2/depgate/internal/identity"
)

// outputStructured renders v as JSON or YAML when the output format asks for
// it, otherwise calls the table renderer.
func outputStructured(v any, table func() error) error {
	switch GetOutput() {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)

	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		return enc.Encode(v)

	default:
		return table()
	}
}

// parseKindFlag resolves a --kind flag value or fails with the accepted names.
func parseKindFlag(s string) (identity.Kind, error) {
	kind, ok := identity.ParseKind(s)
	if !ok {
		return "", fmt.Errorf("unknown kind %q (accepted: leaf-unit, composite-artifact, orchestrator)", s)
	}
	return kind, nil
}

// parseDependencyRefs parses repeated --dep values of the form "kind:path".
func parseDependencyRefs(refs []string) ([]gate.Dependency, error) {
	deps := make([]gate.Dependency, 0, len(refs))
	for _, ref := range refs {
		kindName, path, ok := strings.Cut(ref, ":")
		if !ok || path == "" {
			return nil, fmt.Errorf("dependency %q must have the form kind:path", ref)
		}
		kind, err := parseKindFlag(kindName)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", ref, err)
		}
		deps = append(deps, gate.Dependency{Kind: kind, Path: path})
	}
	return deps, nil
}

// childIDs resolves dependency refs to registry entity ids.
func childIDs(deps []gate.Dependency) []string {
	ids := make([]string, 0, len(deps))
	for _, d := range deps {
		ids = append(ids, identity.ResolveID(d.Kind, d.Path))
	}
	return ids
}
