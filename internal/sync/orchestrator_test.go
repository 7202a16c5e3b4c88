package sync

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/lexbook/lexbook/internal/notebook"
	"github.com/lexbook/lexbook/internal/vcs"
)

const (
	t0 = "2024-01-01T09:00:00.000Z"
	t3 = "2024-03-03T10:00:00.000Z"
	t4 = "2024-03-04T10:00:00.000Z"
)

type syncEnv struct {
	repo  *vcs.Memory
	store *notebook.Store
	orch  *Orchestrator
}

func newSyncEnv(t *testing.T) *syncEnv {
	t.Helper()
	dir := t.TempDir()
	repo := vcs.NewMemory(dir, "notebook.md")
	store := notebook.NewStore(filepath.Join(dir, "notebook.md"))

	log := logrus.New()
	log.SetOutput(io.Discard)

	orch := NewOrchestrator(repo, store, log, Options{
		RemoteURL: "https://example.com/notebook.git",
		Path:      "notebook.md",
	})
	return &syncEnv{repo: repo, store: store, orch: orch}
}

func (e *syncEnv) write(t *testing.T, content string) {
	t.Helper()
	if err := e.store.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	if err := e.store.Write(content); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func (e *syncEnv) sync(t *testing.T) *Result {
	t.Helper()
	res, err := e.orch.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v\ntrail: %s", err, strings.Join(res.Trail, "; "))
	}
	return res
}

func (e *syncEnv) sections(t *testing.T) []notebook.Section {
	t.Helper()
	secs, err := e.store.Sections()
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	return secs
}

// establishShared gives local and remote a common ancestor holding
// content, with both sides fully reconciled afterwards.
func (e *syncEnv) establishShared(t *testing.T, content string) {
	t.Helper()
	e.write(t, content)
	res := e.sync(t)
	if res.Outcome != Success || !res.Pushed {
		t.Fatalf("establishing shared history: %+v", res)
	}
}

func TestSyncLocalAddOnly(t *testing.T) {
	env := newSyncEnv(t)
	env.repo.SeedRemote("", "remote init")

	env.write(t, notebookText(section("ubiquitous", "found everywhere", t1)))

	res := env.sync(t)
	if res.Outcome != Success {
		t.Fatalf("outcome = %v, want success\ntrail: %s", res.Outcome, strings.Join(res.Trail, "; "))
	}
	if len(res.Conflicts) != 0 {
		t.Errorf("unexpected conflicts: %+v", res.Conflicts)
	}

	secs := env.sections(t)
	if len(secs) != 1 || secs[0].Key() != "ubiquitous" {
		t.Errorf("final notebook sections = %+v, want exactly one %q", secs, "ubiquitous")
	}
	if !res.Pushed {
		t.Error("local addition was not pushed")
	}
}

func TestSyncDisjointAdditionsUnion(t *testing.T) {
	env := newSyncEnv(t)
	env.establishShared(t, notebookText(section("genesis", "first entry", t0)))

	env.repo.SeedRemote(notebookText(
		section("ephemeral", "short-lived", t2),
		section("genesis", "first entry", t0),
	), "remote adds ephemeral")

	if err := env.store.Prepend(section("serendipity", "a happy accident", t1)); err != nil {
		t.Fatalf("Prepend: %v", err)
	}

	res := env.sync(t)
	if res.Outcome != Success {
		t.Fatalf("outcome = %v\ntrail: %s", res.Outcome, strings.Join(res.Trail, "; "))
	}
	if len(res.Conflicts) != 0 {
		t.Errorf("disjoint additions reported conflicts: %+v", res.Conflicts)
	}

	secs := env.sections(t)
	if len(secs) != 3 {
		t.Fatalf("got %d sections, want 3: %+v", len(secs), secs)
	}
	keys := make(map[string]bool)
	for _, s := range secs {
		keys[s.Key()] = true
	}
	for _, want := range []string{"genesis", "serendipity", "ephemeral"} {
		if !keys[want] {
			t.Errorf("section %q missing from union", want)
		}
	}
}

func TestSyncConflictNewerTimestampWins(t *testing.T) {
	env := newSyncEnv(t)
	env.establishShared(t, notebookText(section("resilience", "original", t0)))

	env.repo.SeedRemote(notebookText(section("resilience", "remote revision", t1)), "remote edit")
	env.write(t, notebookText(section("resilience", "local revision", t2)))

	res := env.sync(t)
	if res.Outcome != Success {
		t.Fatalf("outcome = %v\ntrail: %s", res.Outcome, strings.Join(res.Trail, "; "))
	}
	if len(res.Conflicts) != 0 {
		t.Errorf("timestamp-resolvable conflict surfaced as unresolvable: %+v", res.Conflicts)
	}

	secs := env.sections(t)
	if len(secs) != 1 {
		t.Fatalf("got %d sections, want 1: %+v", len(secs), secs)
	}
	if !strings.Contains(secs[0].Body, "local revision") {
		t.Errorf("newer local revision lost:\n%s", secs[0].Body)
	}
}

func TestSyncConflictNewerRemoteWins(t *testing.T) {
	env := newSyncEnv(t)
	env.establishShared(t, notebookText(section("resilience", "original", t0)))

	env.repo.SeedRemote(notebookText(section("resilience", "remote revision", t2)), "remote edit")
	env.write(t, notebookText(section("resilience", "local revision", t1)))

	res := env.sync(t)
	if res.Outcome != Success {
		t.Fatalf("outcome = %v\ntrail: %s", res.Outcome, strings.Join(res.Trail, "; "))
	}
	secs := env.sections(t)
	if len(secs) != 1 || !strings.Contains(secs[0].Body, "remote revision") {
		t.Errorf("newer remote revision lost: %+v", secs)
	}
}

func TestSyncDoubleDeleteIsNotAConflict(t *testing.T) {
	env := newSyncEnv(t)
	env.establishShared(t, notebookText(
		section("keeper", "stays", t1),
		section("obsolete", "going away", t0),
	))

	env.repo.SeedRemote(notebookText(section("keeper", "stays", t1)), "remote delete")
	if err := env.store.Delete("obsolete", ""); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	res := env.sync(t)
	if res.Outcome != Success {
		t.Fatalf("outcome = %v\ntrail: %s", res.Outcome, strings.Join(res.Trail, "; "))
	}
	if len(res.Conflicts) != 0 {
		t.Errorf("double delete reported conflicts: %+v", res.Conflicts)
	}
	secs := env.sections(t)
	if len(secs) != 1 || secs[0].Key() != "keeper" {
		t.Errorf("final sections = %+v, want only %q", secs, "keeper")
	}
}

func TestSyncFirstTimeKeepsLocalSectionsOnTop(t *testing.T) {
	env := newSyncEnv(t)
	env.repo.SeedRemote(notebookText(
		section("remote-three", "r3", t2),
		section("remote-two", "r2", t1),
		section("remote-one", "r1", t0),
	), "remote history")

	env.write(t, notebookText(
		section("local-two", "l2", t4),
		section("local-one", "l1", t3),
	))

	res := env.sync(t)
	if res.Outcome != Success {
		t.Fatalf("outcome = %v\ntrail: %s", res.Outcome, strings.Join(res.Trail, "; "))
	}

	secs := env.sections(t)
	if len(secs) != 5 {
		t.Fatalf("got %d sections, want 5: %+v", len(secs), secs)
	}
	wantOrder := []string{"local-two", "local-one", "remote-three", "remote-two", "remote-one"}
	for i, want := range wantOrder {
		if secs[i].Key() != want {
			t.Errorf("section %d = %q, want %q", i, secs[i].Key(), want)
		}
	}
	if !res.Pushed {
		t.Error("first-time sync result not pushed")
	}
}

func TestSyncFirstTimeWithoutRemoteBranch(t *testing.T) {
	env := newSyncEnv(t)
	env.write(t, notebookText(section("solo", "standalone entry", t1)))

	res := env.sync(t)
	if res.Outcome != Success {
		t.Fatalf("outcome = %v\ntrail: %s", res.Outcome, strings.Join(res.Trail, "; "))
	}
	if !res.Pushed {
		t.Error("standalone commit was not pushed to create the remote branch")
	}
	if secs := env.sections(t); len(secs) != 1 {
		t.Errorf("final sections = %+v", secs)
	}
}

func TestSyncIdempotent(t *testing.T) {
	env := newSyncEnv(t)
	env.establishShared(t, notebookText(section("steady", "unchanged", t1)))

	res := env.sync(t)
	if res.Outcome != NoChanges {
		t.Errorf("second run outcome = %v, want no changes\ntrail: %s",
			res.Outcome, strings.Join(res.Trail, "; "))
	}
	if res.Pushed {
		t.Error("second run pushed despite no changes")
	}
}

func TestSyncFetchFailureIsLocalOnly(t *testing.T) {
	env := newSyncEnv(t)
	env.repo.FetchErr = errors.New("network unreachable")
	env.repo.PushErr = errors.New("network unreachable")

	env.write(t, notebookText(section("offline", "written on a plane", t1)))

	res := env.sync(t)
	if res.Outcome != Success {
		t.Fatalf("outcome = %v, want success despite network failure\ntrail: %s",
			res.Outcome, strings.Join(res.Trail, "; "))
	}
	if res.Pushed {
		t.Error("push reported despite injected failure")
	}
	if !env.repo.HasCommits(context.Background()) {
		t.Error("local history not recorded in offline mode")
	}
}

func TestSyncPushFailureIsNotFatal(t *testing.T) {
	env := newSyncEnv(t)
	env.repo.SeedRemote("", "remote init")
	env.repo.PushErr = errors.New("connection reset")

	env.write(t, notebookText(section("pending", "will push later", t1)))

	res := env.sync(t)
	if res.Outcome != Success {
		t.Fatalf("outcome = %v\ntrail: %s", res.Outcome, strings.Join(res.Trail, "; "))
	}
	if res.Pushed {
		t.Error("Pushed set despite failing push")
	}

	// The retry pushes the already-recorded history.
	env.repo.PushErr = nil
	res = env.sync(t)
	if !res.Pushed {
		t.Errorf("retry did not push\ntrail: %s", strings.Join(res.Trail, "; "))
	}
}

func TestSyncUnresolvableConflictSurfaced(t *testing.T) {
	env := newSyncEnv(t)
	env.establishShared(t, notebookText(section("mystery", "original", "")))

	env.repo.SeedRemote(notebookText(section("mystery", "remote wording", "")), "remote edit")
	env.write(t, notebookText(section("mystery", "local wording", "")))

	res := env.sync(t)
	if res.Outcome != Conflicts {
		t.Fatalf("outcome = %v, want conflicts\ntrail: %s", res.Outcome, strings.Join(res.Trail, "; "))
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].Identity != "mystery" {
		t.Fatalf("surfaced conflicts = %+v", res.Conflicts)
	}

	// The file itself is resolved by the documented remote-wins default.
	secs := env.sections(t)
	if len(secs) != 1 || !strings.Contains(secs[0].Body, "remote wording") {
		t.Errorf("remote default not applied to the file: %+v", secs)
	}
}

func TestSyncLocalOnlyWithoutRemoteURL(t *testing.T) {
	dir := t.TempDir()
	repo := vcs.NewMemory(dir, "notebook.md")
	store := notebook.NewStore(filepath.Join(dir, "notebook.md"))
	log := logrus.New()
	log.SetOutput(io.Discard)
	orch := NewOrchestrator(repo, store, log, Options{Path: "notebook.md"})

	if err := store.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	if err := store.Write(notebookText(section("hermit", "no remote at all", t1))); err != nil {
		t.Fatalf("Write: %v", err)
	}

	res, err := orch.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Outcome != Success {
		t.Errorf("outcome = %v, want success", res.Outcome)
	}
	if res.Pushed {
		t.Error("pushed without a configured remote")
	}

	res, err = orch.Sync(context.Background())
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if res.Outcome != NoChanges {
		t.Errorf("second local-only run outcome = %v, want no changes", res.Outcome)
	}
}
