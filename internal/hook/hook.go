// Package hook is the boundary between an agent host's interception
// mechanism and the engine. Events arrive as JSON payloads; each event kind
// maps to a typed handler through a registration table built once at
// startup, never through string comparison at dispatch time. Payloads are
// decoded into a closed set of typed structs at this boundary — nothing
// downstream sees untyped maps.
//
// The pre-action path fails closed: an event that cannot be parsed or
// evaluated is denied, never waved through.
package hook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/boshu2/depgate/internal/fingerprint"
	"github.com/boshu2/depgate/internal/gate"
	"github.com/boshu2/depgate/internal/identity"
	"github.com/boshu2/depgate/internal/recorder"
	"github.com/boshu2/depgate/internal/registry"
)

// EventKind identifies an interception event.
type EventKind string

const (
	// EventPreAction fires before a promotion or integration action; the
	// handler runs the dependency gate and allows or denies.
	EventPreAction EventKind = "pre-action"

	// EventPostAction fires after an external test run completes; the
	// handler records the outcome in the registry ledger.
	EventPostAction EventKind = "post-action"
)

// eventAliases maps alternative spellings to canonical event kinds.
var eventAliases = map[string]EventKind{
	"pre-action":  EventPreAction,
	"pre_action":  EventPreAction,
	"pre":         EventPreAction,
	"post-action": EventPostAction,
	"post_action": EventPostAction,
	"post":        EventPostAction,
}

// ParseEventKind resolves an event name or alias. Returns false for
// unknown names.
func ParseEventKind(s string) (EventKind, bool) {
	k, ok := eventAliases[strings.ToLower(strings.TrimSpace(s))]
	return k, ok
}

// Decision values for an Outcome.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// DependencyRef names one declared dependency in an event payload.
type DependencyRef struct {
	// Kind is the dependency's entity kind name.
	Kind string `json:"kind"`

	// Path is the dependency's logical path.
	Path string `json:"path"`
}

// PreActionEvent is the payload for EventPreAction.
type PreActionEvent struct {
	// Operation is the operation kind ("create" or "update").
	Operation string `json:"operation"`

	// Kind is the proposed entity's kind name.
	Kind string `json:"kind"`

	// Path is the proposed entity's logical path.
	Path string `json:"path"`

	// ContentFingerprint is the hash of the proposed definition, if known.
	ContentFingerprint string `json:"content_fingerprint,omitempty"`

	// Dependencies are the proposed entity's declared dependencies.
	Dependencies []DependencyRef `json:"dependencies,omitempty"`
}

// PostActionEvent is the payload for EventPostAction.
type PostActionEvent struct {
	// Kind is the tested entity's kind name.
	Kind string `json:"kind"`

	// Path is the tested entity's logical path.
	Path string `json:"path"`

	// Input is the raw test input payload; it is fingerprinted
	// structurally, so formatting differences do not defeat novelty.
	Input json.RawMessage `json:"input,omitempty"`

	// InputFingerprint lets a caller supply a precomputed fingerprint
	// instead of the raw input.
	InputFingerprint string `json:"input_fingerprint,omitempty"`

	// ContentFingerprint is the entity's definition hash observed at test
	// time, if the caller has it.
	ContentFingerprint string `json:"content_fingerprint,omitempty"`

	// Passed is the test outcome.
	Passed bool `json:"passed"`
}

// Outcome is what the host receives back for any event.
type Outcome struct {
	// Decision is "allow" or "deny".
	Decision string `json:"decision"`

	// Reason is a human-readable explanation of the decision.
	Reason string `json:"reason,omitempty"`

	// Violations are the gate findings that caused a deny.
	Violations []gate.Finding `json:"violations,omitempty"`

	// Warnings are flagged findings on an allowed decision.
	Warnings []gate.Finding `json:"warnings,omitempty"`
}

// Allowed reports whether the outcome permits the action.
func (o *Outcome) Allowed() bool {
	return o.Decision == DecisionAllow
}

// handler processes one decoded event payload.
type handler func(d *Dispatcher, payload []byte) *Outcome

// Dispatcher routes events to their handlers. The handler table is built
// once at construction.
type Dispatcher struct {
	store        *registry.Store
	requiredRuns int
	handlers     map[EventKind]handler
}

// NewDispatcher creates a dispatcher over the given store. requiredRuns of
// zero or less uses the default threshold.
func NewDispatcher(store *registry.Store, requiredRuns int) *Dispatcher {
	if requiredRuns <= 0 {
		requiredRuns = registry.RequiredNovelRuns
	}
	return &Dispatcher{
		store:        store,
		requiredRuns: requiredRuns,
		handlers: map[EventKind]handler{
			EventPreAction:  (*Dispatcher).handlePreAction,
			EventPostAction: (*Dispatcher).handlePostAction,
		},
	}
}

// Dispatch routes a raw payload to the handler for kind. Unknown event
// kinds deny.
func (d *Dispatcher) Dispatch(kind EventKind, payload []byte) *Outcome {
	h, ok := d.handlers[kind]
	if !ok {
		return deny(fmt.Sprintf("unknown event kind %q", kind))
	}
	return h(d, payload)
}

// handlePreAction runs the dependency gate for a proposed operation.
func (d *Dispatcher) handlePreAction(payload []byte) *Outcome {
	var event PreActionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return deny(fmt.Sprintf("parse pre-action event: %v", err))
	}

	op, ok := gate.ParseOperationKind(event.Operation)
	if !ok {
		return deny(fmt.Sprintf("unknown operation kind %q", event.Operation))
	}
	kind, ok := identity.ParseKind(event.Kind)
	if !ok {
		return deny(fmt.Sprintf("unknown entity kind %q", event.Kind))
	}

	deps := make([]gate.Dependency, 0, len(event.Dependencies))
	for _, ref := range event.Dependencies {
		depKind, ok := identity.ParseKind(ref.Kind)
		if !ok {
			return deny(fmt.Sprintf("unknown dependency kind %q for %s", ref.Kind, ref.Path))
		}
		deps = append(deps, gate.Dependency{Kind: depKind, Path: ref.Path})
	}

	reg := d.store.Load()
	proposed := gate.Proposed{
		Kind:               kind,
		Path:               event.Path,
		ContentFingerprint: event.ContentFingerprint,
	}
	decision := gate.EvaluateOperationWith(reg, op, proposed, deps, d.requiredRuns)

	outcome := &Outcome{
		Reason:     decision.Summary(),
		Violations: decision.Violations,
		Warnings:   decision.Warnings,
	}
	if decision.Allowed {
		outcome.Decision = DecisionAllow
	} else {
		outcome.Decision = DecisionDeny
	}
	return outcome
}

// handlePostAction records a completed test run. A deny here means the
// evidence could not be persisted, so the host should not count the run.
func (d *Dispatcher) handlePostAction(payload []byte) *Outcome {
	var event PostActionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return deny(fmt.Sprintf("parse post-action event: %v", err))
	}

	kind, ok := identity.ParseKind(event.Kind)
	if !ok {
		return deny(fmt.Sprintf("unknown entity kind %q", event.Kind))
	}
	id := identity.ResolveID(kind, event.Path)

	inputFP := event.InputFingerprint
	if inputFP == "" {
		if len(event.Input) == 0 {
			return deny("post-action event carries neither input nor input_fingerprint")
		}
		var err error
		inputFP, err = fingerprint.JSON(event.Input)
		if err != nil {
			return deny(fmt.Sprintf("fingerprint test input: %v", err))
		}
	}

	if event.ContentFingerprint != "" {
		if _, err := recorder.Observe(d.store, id, kind, identity.NormalizePath(event.Path), event.ContentFingerprint, nil); err != nil {
			return deny(fmt.Sprintf("observe content fingerprint: %v", err))
		}
	}

	run, err := recorder.Record(d.store, id, kind, inputFP, event.Passed)
	if err != nil {
		return deny(fmt.Sprintf("record run: %v", err))
	}

	reason := fmt.Sprintf("recorded run for %s (novel=%v, passed=%v)", event.Path, run.Novel, run.Passed)
	return &Outcome{Decision: DecisionAllow, Reason: reason}
}

func deny(reason string) *Outcome {
	return &Outcome{Decision: DecisionDeny, Reason: reason}
}
