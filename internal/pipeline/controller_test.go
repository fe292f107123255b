package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arjunvn/tracelate/internal/llm"
	"github.com/arjunvn/tracelate/internal/pipeline"
	"github.com/arjunvn/tracelate/internal/source"
	"github.com/arjunvn/tracelate/internal/store"
)

// fakeGateway scripts per-item outcomes and records the call sequence so
// tests can assert strict one-item-at-a-time ordering.
type fakeGateway struct {
	failGeneration  map[string]bool
	failTranslation map[string]bool
	calls           []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		failGeneration:  map[string]bool{},
		failTranslation: map[string]bool{},
	}
}

func terminalErr(operation string) error {
	return &llm.TerminalError{Operation: operation, Attempts: 3, Err: errors.New("model unavailable")}
}

func (f *fakeGateway) Generate(ctx context.Context, title string, content string) (string, error) {
	f.calls = append(f.calls, "generate:"+title)
	if f.failGeneration[title] {
		return "", terminalErr("generate")
	}
	return "trace for " + title, nil
}

func (f *fakeGateway) Translate(ctx context.Context, traceText string) (string, error) {
	title := strings.TrimPrefix(traceText, "trace for ")
	f.calls = append(f.calls, "translate:"+title)
	if f.failTranslation[title] {
		return "", terminalErr("translate")
	}
	return "translated " + traceText, nil
}

func mustOpenStore(t *testing.T) *store.Store {
	t.Helper()
	traceStore, openErr := store.Open(filepath.Join(t.TempDir(), "traces.db"), nil)
	if openErr != nil {
		t.Fatalf("Open: %v", openErr)
	}
	t.Cleanup(func() { _ = traceStore.Close() })
	return traceStore
}

func items(titles ...string) []source.WorkItem {
	out := make([]source.WorkItem, 0, len(titles))
	for _, title := range titles {
		out = append(out, source.WorkItem{Title: title, Content: "content of " + title})
	}
	return out
}

func TestRunHappyPath(t *testing.T) {
	traceStore := mustOpenStore(t)
	gateway := newFakeGateway()
	controller := pipeline.NewController(gateway, traceStore, nil)

	summary, runErr := controller.Run(context.Background(), items("Two Sum", "Add Two Numbers"))
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if summary.Processed != 2 || summary.Generated != 2 || summary.Translated != 2 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	completed, listErr := traceStore.ListByStatus(context.Background(), store.StatusCompleted)
	if listErr != nil {
		t.Fatalf("ListByStatus: %v", listErr)
	}
	if len(completed) != 2 {
		t.Fatalf("len(completed) = %d, want 2", len(completed))
	}
	for _, record := range completed {
		if record.TraceTranslatedWithThink == nil {
			t.Fatalf("completed record %d missing translated trace", record.ID)
		}
		if record.TranslatedAt == nil || record.TranslatedAt.Before(record.CreatedAt) {
			t.Fatalf("completed record %d has invalid translated_at", record.ID)
		}
	}
}

func TestRunItemsAreNeverInterleaved(t *testing.T) {
	traceStore := mustOpenStore(t)
	gateway := newFakeGateway()
	controller := pipeline.NewController(gateway, traceStore, nil)

	if _, runErr := controller.Run(context.Background(), items("A", "B", "C")); runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}

	expected := []string{
		"generate:A", "translate:A",
		"generate:B", "translate:B",
		"generate:C", "translate:C",
	}
	if fmt.Sprint(gateway.calls) != fmt.Sprint(expected) {
		t.Fatalf("call sequence = %v, want %v", gateway.calls, expected)
	}
}

func TestRunPreservesSourceOrder(t *testing.T) {
	traceStore := mustOpenStore(t)
	gateway := newFakeGateway()
	controller := pipeline.NewController(gateway, traceStore, nil)

	if _, runErr := controller.Run(context.Background(), items("A", "B", "C")); runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}

	completed, _ := traceStore.ListByStatus(context.Background(), store.StatusCompleted)
	titles := make([]string, 0, len(completed))
	for _, record := range completed {
		titles = append(titles, record.Title)
	}
	if fmt.Sprint(titles) != fmt.Sprint([]string{"A", "B", "C"}) {
		t.Fatalf("insertion order = %v, want [A B C]", titles)
	}
}

func TestGenerationFailureProducesNoRow(t *testing.T) {
	traceStore := mustOpenStore(t)
	gateway := newFakeGateway()
	gateway.failGeneration["B"] = true
	controller := pipeline.NewController(gateway, traceStore, nil)

	summary, runErr := controller.Run(context.Background(), items("A", "B", "C"))
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if summary.GenerationFailures != 1 || summary.Generated != 2 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	counts, _ := traceStore.CountByStatus(context.Background())
	total := counts[store.StatusPending] + counts[store.StatusCompleted] + counts[store.StatusFailed]
	if total != 2 {
		t.Fatalf("row count = %d, want 2 (generation failure must not persist a row)", total)
	}
	for _, title := range []string{"A", "C"} {
		found := false
		completed, _ := traceStore.ListByStatus(context.Background(), store.StatusCompleted)
		for _, record := range completed {
			if record.Title == title {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected completed record for %s", title)
		}
	}
}

func TestTranslationFailureKeepsSourceTrace(t *testing.T) {
	traceStore := mustOpenStore(t)
	gateway := newFakeGateway()
	gateway.failTranslation["Two Sum"] = true
	controller := pipeline.NewController(gateway, traceStore, nil)

	summary, runErr := controller.Run(context.Background(), items("Two Sum"))
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if summary.TranslationFailures != 1 || summary.Translated != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	failed, _ := traceStore.ListByStatus(context.Background(), store.StatusFailed)
	if len(failed) != 1 {
		t.Fatalf("len(failed) = %d, want exactly 1", len(failed))
	}
	record := failed[0]
	if record.TraceSourceWithThink == "" {
		t.Fatal("source trace must remain persisted after translation failure")
	}
	if record.TraceTranslatedWithThink != nil {
		t.Fatal("failed record must not carry a translated trace")
	}
}

func TestRunSweepsPreexistingPendingRecords(t *testing.T) {
	traceStore := mustOpenStore(t)
	ctx := context.Background()
	if _, insertErr := traceStore.InsertGenerated(ctx, "Leftover", "content of Leftover", "trace for Leftover"); insertErr != nil {
		t.Fatalf("InsertGenerated: %v", insertErr)
	}

	gateway := newFakeGateway()
	controller := pipeline.NewController(gateway, traceStore, nil)
	summary, runErr := controller.Run(ctx, nil)
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if summary.Translated != 1 {
		t.Fatalf("Translated = %d, want 1", summary.Translated)
	}

	pending, _ := traceStore.ListByStatus(ctx, store.StatusPending)
	if len(pending) != 0 {
		t.Fatalf("pending leftovers remain: %d", len(pending))
	}
}

func TestCatchUpTranslatesOnlyPending(t *testing.T) {
	traceStore := mustOpenStore(t)
	ctx := context.Background()

	firstID, _ := traceStore.InsertGenerated(ctx, "P1", "c", "trace for P1")
	secondID, _ := traceStore.InsertGenerated(ctx, "P2", "c", "trace for P2")
	completedID, _ := traceStore.InsertGenerated(ctx, "Done", "c", "trace for Done")
	if markErr := traceStore.MarkTranslated(ctx, completedID, "already translated"); markErr != nil {
		t.Fatalf("MarkTranslated: %v", markErr)
	}

	gateway := newFakeGateway()
	controller := pipeline.NewController(gateway, traceStore, nil)
	summary, catchUpErr := controller.CatchUp(ctx, false)
	if catchUpErr != nil {
		t.Fatalf("CatchUp: %v", catchUpErr)
	}
	if summary.Processed != 2 || summary.Translated != 2 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	for _, id := range []int64{firstID, secondID} {
		record, _ := traceStore.GetByID(ctx, id)
		if record.Status != store.StatusCompleted {
			t.Fatalf("record %d status = %s, want completed", id, record.Status)
		}
	}
	untouched, _ := traceStore.GetByID(ctx, completedID)
	if *untouched.TraceTranslatedWithThink != "already translated" {
		t.Fatal("catch-up must leave completed records untouched")
	}
}

func TestCatchUpIncludesFailedOnlyWhenRequested(t *testing.T) {
	traceStore := mustOpenStore(t)
	ctx := context.Background()

	failedID, _ := traceStore.InsertGenerated(ctx, "F", "c", "trace for F")
	if markErr := traceStore.MarkFailed(ctx, failedID); markErr != nil {
		t.Fatalf("MarkFailed: %v", markErr)
	}

	gateway := newFakeGateway()
	controller := pipeline.NewController(gateway, traceStore, nil)

	summary, catchUpErr := controller.CatchUp(ctx, false)
	if catchUpErr != nil {
		t.Fatalf("CatchUp: %v", catchUpErr)
	}
	if summary.Processed != 0 {
		t.Fatalf("failed record re-queued without include_failed: %#v", summary)
	}

	summary, catchUpErr = controller.CatchUp(ctx, true)
	if catchUpErr != nil {
		t.Fatalf("CatchUp include_failed: %v", catchUpErr)
	}
	if summary.Processed != 1 || summary.Translated != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	record, _ := traceStore.GetByID(ctx, failedID)
	if record.Status != store.StatusCompleted {
		t.Fatalf("status = %s, want completed after explicit re-queue", record.Status)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	traceStore := mustOpenStore(t)
	gateway := newFakeGateway()
	controller := pipeline.NewController(gateway, traceStore, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, runErr := controller.Run(ctx, items("A")); !errors.Is(runErr, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", runErr)
	}
	if len(gateway.calls) != 0 {
		t.Fatalf("no model calls expected after cancellation, got %v", gateway.calls)
	}
}
