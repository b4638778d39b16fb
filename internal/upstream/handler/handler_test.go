package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adjebara/people-search/backend/internal/model/profile"
	"github.com/adjebara/people-search/backend/internal/upstream/process"
	"github.com/adjebara/people-search/backend/internal/upstream/search"
	"github.com/adjebara/people-search/backend/internal/upstream/state"
)

type fakeSearcher struct {
	docs []search.Document
	err  error
}

func (f *fakeSearcher) Search(context.Context, string) ([]search.Document, error) {
	return f.docs, f.err
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(context.Context, []search.Document) (string, error) {
	return f.summary, f.err
}

type fakeProcessor struct {
	outcome process.Outcome
	err     error
	gotIn   []profile.RawRecord
}

func (f *fakeProcessor) Process(_ context.Context, profiles []profile.RawRecord, _ string) (process.Outcome, error) {
	f.gotIn = profiles
	return f.outcome, f.err
}

func postJSON(h http.Handler, path string, body map[string]string) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestSearchStoresExtractedRecords(t *testing.T) {
	store := state.NewStore()
	searcher := &fakeSearcher{docs: []search.Document{{Title: "Acme leadership", Text: "..."}}}
	summarizer := &fakeSummarizer{
		summary: `{"full_name":"Jane Doe","description":"CEO of Acme"} {"full_name":"John Roe","description":"CTO of Acme"}`,
	}
	router := NewRouter(New(searcher, summarizer, &fakeProcessor{}, store))

	resp := postJSON(router, "/search", map[string]string{"query": "Acme executives"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var decoded struct {
		Query        string `json:"query"`
		Summary      string `json:"summary"`
		ResultsCount int    `json:"results_count"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if decoded.Query != "Acme executives" || decoded.ResultsCount != 2 {
		t.Fatalf("unexpected response: %+v", decoded)
	}

	query, records := store.Current()
	if query != "Acme executives" || len(records) != 2 {
		t.Fatalf("store not updated: query=%q records=%d", query, len(records))
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	router := NewRouter(New(&fakeSearcher{}, &fakeSummarizer{}, &fakeProcessor{}, state.NewStore()))

	resp := postJSON(router, "/search", map[string]string{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSearchUpstreamFailure(t *testing.T) {
	router := NewRouter(New(&fakeSearcher{err: errors.New("search API returned 429")}, &fakeSummarizer{}, &fakeProcessor{}, state.NewStore()))

	resp := postJSON(router, "/search", map[string]string{"query": "anyone"})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}

func TestProcessModifiedReplacesStoredProfiles(t *testing.T) {
	store := state.NewStore()
	store.SetSearch("Acme executives", []profile.RawRecord{
		{FullName: "Jane Doe", Description: "CEO of Acme"},
		{FullName: "John Roe", Description: "CTO of Acme"},
	})
	processor := &fakeProcessor{outcome: process.Outcome{
		ChatText:        "Kept only the CTO.",
		FilteredResults: []profile.RawRecord{{FullName: "John Roe", Description: "CTO of Acme"}},
		ResultsModified: true,
	}}
	router := NewRouter(New(&fakeSearcher{}, &fakeSummarizer{}, processor, store))

	resp := postJSON(router, "/process", map[string]string{"instruction": "keep only the CTO"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var decoded struct {
		ChatText        string              `json:"chat_response"`
		ResultsModified bool                `json:"results_modified"`
		FilteredResults []profile.RawRecord `json:"filtered_results"`
		ResultsCount    int                 `json:"results_count"`
		OriginalQuery   string              `json:"original_query"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !decoded.ResultsModified || decoded.ResultsCount != 1 || decoded.OriginalQuery != "Acme executives" {
		t.Fatalf("unexpected response: %+v", decoded)
	}
	if len(processor.gotIn) != 2 {
		t.Fatalf("processor should receive the stored profiles, got %d", len(processor.gotIn))
	}

	_, records := store.Current()
	if len(records) != 1 || records[0].FullName != "John Roe" {
		t.Fatalf("store should hold the filtered set: %+v", records)
	}
}

func TestProcessUnmodifiedKeepsStoredProfiles(t *testing.T) {
	store := state.NewStore()
	store.SetSearch("Acme executives", []profile.RawRecord{{FullName: "Jane Doe"}})
	processor := &fakeProcessor{outcome: process.Outcome{
		ChatText:        "Here is an analysis.",
		FilteredResults: []profile.RawRecord{{FullName: "Jane Doe"}},
		ResultsModified: false,
	}}
	router := NewRouter(New(&fakeSearcher{}, &fakeSummarizer{}, processor, store))

	resp := postJSON(router, "/process", map[string]string{"instruction": "analyze"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	_, records := store.Current()
	if len(records) != 1 {
		t.Fatalf("store should be untouched: %+v", records)
	}
}

func TestClearSessionWipesStore(t *testing.T) {
	store := state.NewStore()
	store.SetSearch("Acme executives", []profile.RawRecord{{FullName: "Jane Doe"}})
	router := NewRouter(New(&fakeSearcher{}, &fakeSummarizer{}, &fakeProcessor{}, store))

	resp := postJSON(router, "/clear-session", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	query, records := store.Current()
	if query != "" || len(records) != 0 {
		t.Fatalf("store should be empty: query=%q records=%d", query, len(records))
	}
}
