package hook

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boshu2/depgate/internal/health"
	"github.com/boshu2/depgate/internal/identity"
	"github.com/boshu2/depgate/internal/recorder"
	"github.com/boshu2/depgate/internal/registry"
)

func testDispatcher(t *testing.T) (*Dispatcher, *registry.Store) {
	t.Helper()
	store := registry.NewStore(filepath.Join(t.TempDir(), "registry.json"))
	return NewDispatcher(store, 0), store
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestParseEventKind(t *testing.T) {
	cases := []struct {
		in   string
		want EventKind
		ok   bool
	}{
		{"pre-action", EventPreAction, true},
		{"pre", EventPreAction, true},
		{"POST", EventPostAction, true},
		{"post_action", EventPostAction, true},
		{"mid-action", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseEventKind(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseEventKind(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDispatchUnknownEventDenies(t *testing.T) {
	d, _ := testDispatcher(t)

	outcome := d.Dispatch(EventKind("mystery"), []byte("{}"))
	if outcome.Allowed() {
		t.Error("unknown event must fail closed")
	}
}

func TestPreActionMalformedPayloadDenies(t *testing.T) {
	d, _ := testDispatcher(t)

	cases := []struct {
		name    string
		payload string
	}{
		{"not json", "{nope"},
		{"unknown operation", `{"operation":"promote","kind":"leaf-unit","path":"x"}`},
		{"unknown kind", `{"operation":"update","kind":"module","path":"x"}`},
		{"unknown dependency kind", `{"operation":"update","kind":"composite-artifact","path":"x","dependencies":[{"kind":"widget","path":"y"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome := d.Dispatch(EventPreAction, []byte(tc.payload))
			if outcome.Allowed() {
				t.Errorf("expected deny, got %+v", outcome)
			}
			if outcome.Reason == "" {
				t.Error("deny must carry a reason")
			}
		})
	}
}

func TestPreActionGateRoundTrip(t *testing.T) {
	d, store := testDispatcher(t)

	// Build a healthy leaf through the real recorder path.
	leafID := identity.ResolveID(identity.KindLeafUnit, "pkg/parser")
	if _, err := recorder.Observe(store, leafID, identity.KindLeafUnit, "pkg/parser", "fp-1", nil); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	for _, in := range []string{"h1", "h2", "h3"} {
		if _, err := recorder.Record(store, leafID, identity.KindLeafUnit, in, true); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	event := PreActionEvent{
		Operation: "update",
		Kind:      "composite-artifact",
		Path:      "svc/api",
		Dependencies: []DependencyRef{
			{Kind: "leaf-unit", Path: "pkg/parser"},
		},
	}
	outcome := d.Dispatch(EventPreAction, marshal(t, event))
	if !outcome.Allowed() {
		t.Fatalf("expected allow, got %+v", outcome)
	}

	// Now the dependency drifts: new content fingerprint, no new runs.
	if _, err := recorder.Observe(store, leafID, identity.KindLeafUnit, "", "fp-2", nil); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	outcome = d.Dispatch(EventPreAction, marshal(t, event))
	if outcome.Allowed() {
		t.Fatal("expected deny after dependency went stale")
	}
	if len(outcome.Violations) != 1 || outcome.Violations[0].Status != health.StatusStale {
		t.Errorf("violations = %+v, want one stale finding", outcome.Violations)
	}
}

func TestPreActionCreateWarnsButAllows(t *testing.T) {
	d, _ := testDispatcher(t)

	event := PreActionEvent{
		Operation: "create",
		Kind:      "composite-artifact",
		Path:      "svc/new",
		Dependencies: []DependencyRef{
			{Kind: "leaf-unit", Path: "pkg/unbuilt"},
		},
	}
	outcome := d.Dispatch(EventPreAction, marshal(t, event))
	if !outcome.Allowed() {
		t.Fatalf("create must allow over untested deps, got %+v", outcome)
	}
	if len(outcome.Warnings) != 1 {
		t.Errorf("warnings = %d, want 1", len(outcome.Warnings))
	}
}

func TestPostActionRecordsRun(t *testing.T) {
	d, store := testDispatcher(t)

	event := PostActionEvent{
		Kind:               "leaf-unit",
		Path:               "pkg/parser",
		Input:              json.RawMessage(`{"case": "empty input", "seed": 1}`),
		ContentFingerprint: "fp-1",
		Passed:             true,
	}
	outcome := d.Dispatch(EventPostAction, marshal(t, event))
	if !outcome.Allowed() {
		t.Fatalf("expected allow, got %+v", outcome)
	}
	if !strings.Contains(outcome.Reason, "novel=true") {
		t.Errorf("reason = %q, want novelty reported", outcome.Reason)
	}

	id := identity.ResolveID(identity.KindLeafUnit, "pkg/parser")
	e := store.Load().Get(id)
	if e == nil || len(e.Runs) != 1 {
		t.Fatalf("run not recorded: %+v", e)
	}
	if e.ContentFingerprint != "fp-1" {
		t.Errorf("content fingerprint = %q, want fp-1", e.ContentFingerprint)
	}
	if e.Runs[0].FingerprintAtRun != "fp-1" {
		t.Errorf("FingerprintAtRun = %q, want fp-1 (observed before recording)", e.Runs[0].FingerprintAtRun)
	}
}

func TestPostActionInputFormattingDoesNotDefeatNovelty(t *testing.T) {
	d, store := testDispatcher(t)

	first := PostActionEvent{
		Kind:   "leaf-unit",
		Path:   "pkg/parser",
		Input:  json.RawMessage(`{"seed":1,"case":"a"}`),
		Passed: true,
	}
	second := PostActionEvent{
		Kind:   "leaf-unit",
		Path:   "pkg/parser",
		Input:  json.RawMessage(`{ "case": "a", "seed": 1 }`), // same payload, reformatted
		Passed: true,
	}

	if outcome := d.Dispatch(EventPostAction, marshal(t, first)); !outcome.Allowed() {
		t.Fatalf("first record failed: %+v", outcome)
	}
	if outcome := d.Dispatch(EventPostAction, marshal(t, second)); !outcome.Allowed() {
		t.Fatalf("second record failed: %+v", outcome)
	}

	id := identity.ResolveID(identity.KindLeafUnit, "pkg/parser")
	e := store.Load().Get(id)
	if len(e.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(e.Runs))
	}
	if e.Runs[1].Novel {
		t.Error("reformatted identical input must not count as novel")
	}
}

func TestPostActionRequiresInput(t *testing.T) {
	d, _ := testDispatcher(t)

	event := PostActionEvent{Kind: "leaf-unit", Path: "pkg/parser", Passed: true}
	outcome := d.Dispatch(EventPostAction, marshal(t, event))
	if outcome.Allowed() {
		t.Error("post-action without input or fingerprint must deny")
	}
}

func TestPostActionAcceptsPrecomputedFingerprint(t *testing.T) {
	d, store := testDispatcher(t)

	event := PostActionEvent{
		Kind:             "leaf-unit",
		Path:             "pkg/parser",
		InputFingerprint: "precomputed-1",
		Passed:           true,
	}
	if outcome := d.Dispatch(EventPostAction, marshal(t, event)); !outcome.Allowed() {
		t.Fatalf("expected allow, got %+v", outcome)
	}

	id := identity.ResolveID(identity.KindLeafUnit, "pkg/parser")
	e := store.Load().Get(id)
	if len(e.Runs) != 1 || e.Runs[0].InputFingerprint != "precomputed-1" {
		t.Errorf("runs = %+v, want precomputed fingerprint honored", e.Runs)
	}
}
