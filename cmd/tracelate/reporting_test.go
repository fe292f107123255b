package tracelate

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/arjunvn/tracelate/internal/pipeline"
	"github.com/arjunvn/tracelate/internal/store"
)

func TestWriteSummaryFormatsCounters(t *testing.T) {
	command := &cobra.Command{}
	var output bytes.Buffer
	command.SetOut(&output)

	summary := pipeline.Summary{
		Processed:           5,
		Generated:           4,
		Translated:          3,
		GenerationFailures:  1,
		TranslationFailures: 1,
	}
	if err := writeSummary(command, summary); err != nil {
		t.Fatalf("writeSummary returned error: %v", err)
	}

	expected := "processed=5 generated=4 translated=3 generation_failures=1 translation_failures=1\n"
	if output.String() != expected {
		t.Fatalf("summary output = %q, expected %q", output.String(), expected)
	}
}

func TestWriteStatusReportListsEveryStatusAndTotal(t *testing.T) {
	command := &cobra.Command{}
	var output bytes.Buffer
	command.SetOut(&output)

	statusCounts := map[store.Status]int{
		store.StatusPending:   2,
		store.StatusCompleted: 7,
	}
	if err := writeStatusReport(command, statusCounts); err != nil {
		t.Fatalf("writeStatusReport returned error: %v", err)
	}

	expected := "pending: 2\ncompleted: 7\nfailed: 0\ntotal: 9\n"
	if output.String() != expected {
		t.Fatalf("status output = %q, expected %q", output.String(), expected)
	}
}
