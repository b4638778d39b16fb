package process

import (
	"strings"
	"testing"

	"github.com/adjebara/people-search/backend/internal/model/profile"
)

var originals = []profile.RawRecord{
	{FullName: "Jane Doe", Description: "CEO of Acme"},
	{FullName: "John Roe", Description: "CTO of Acme"},
}

func TestExtractOutcomeWellFormed(t *testing.T) {
	reply := `Sure, here is the result:
{"chat_response": "Kept only the CEO.", "filtered_results": [{"full_name": "Jane Doe", "description": "CEO of Acme"}], "results_modified": true}
Let me know if you need anything else.`

	outcome := extractOutcome(reply, originals)
	if !outcome.ResultsModified {
		t.Fatal("expected results_modified=true")
	}
	if outcome.ChatText != "Kept only the CEO." {
		t.Fatalf("unexpected chat text %q", outcome.ChatText)
	}
	if len(outcome.FilteredResults) != 1 || outcome.FilteredResults[0].FullName != "Jane Doe" {
		t.Fatalf("unexpected filtered results: %+v", outcome.FilteredResults)
	}
}

func TestExtractOutcomeNoJSONFallsBack(t *testing.T) {
	reply := "I could not produce structured output, sorry."

	outcome := extractOutcome(reply, originals)
	if outcome.ResultsModified {
		t.Fatal("fallback must not claim modification")
	}
	if outcome.ChatText != reply {
		t.Fatalf("fallback should keep the raw reply, got %q", outcome.ChatText)
	}
	if len(outcome.FilteredResults) != len(originals) {
		t.Fatalf("fallback should keep the original profiles, got %d", len(outcome.FilteredResults))
	}
}

func TestExtractOutcomeMalformedJSONFallsBack(t *testing.T) {
	reply := `{"chat_response": "truncated...`

	outcome := extractOutcome(reply, originals)
	if outcome.ResultsModified || outcome.ChatText != reply {
		t.Fatalf("malformed JSON should fall back verbatim: %+v", outcome)
	}
}

func TestExtractOutcomeMissingChatResponseFallsBack(t *testing.T) {
	reply := `{"filtered_results": [], "results_modified": true}`

	outcome := extractOutcome(reply, originals)
	if outcome.ResultsModified {
		t.Fatal("a reply without chat_response must not be trusted")
	}
	if len(outcome.FilteredResults) != len(originals) {
		t.Fatalf("fallback should keep the original profiles, got %d", len(outcome.FilteredResults))
	}
}

func TestBuildPromptEmbedsProfilesAndInstruction(t *testing.T) {
	prompt, err := buildPrompt(originals, "keep only the CEO")
	if err != nil {
		t.Fatalf("buildPrompt err: %v", err)
	}
	if !strings.Contains(prompt, "Jane Doe") || !strings.Contains(prompt, "John Roe") {
		t.Fatal("prompt should embed the profile set")
	}
	if !strings.Contains(prompt, `"keep only the CEO"`) {
		t.Fatal("prompt should embed the quoted instruction")
	}
	if !strings.Contains(prompt, "results_modified") {
		t.Fatal("prompt should state the JSON contract")
	}
}
