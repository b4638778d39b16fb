package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	middlewarePkg "github.com/adjebara/people-search/backend/internal/middleware"
	"github.com/adjebara/people-search/backend/internal/model/profile"
	"github.com/adjebara/people-search/backend/internal/parser"
	"github.com/adjebara/people-search/backend/internal/upstream/process"
	"github.com/adjebara/people-search/backend/internal/upstream/search"
	"github.com/adjebara/people-search/backend/internal/upstream/state"
	"github.com/adjebara/people-search/backend/pkg/utils"
)

// Searcher finds web documents for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Document, error)
}

// Summarizer turns documents into per-person profile text.
type Summarizer interface {
	Summarize(ctx context.Context, docs []search.Document) (string, error)
}

// Processor applies an instruction to the current profile set.
type Processor interface {
	Process(ctx context.Context, profiles []profile.RawRecord, instruction string) (process.Outcome, error)
}

// Handler implements the upstream service's three endpoints.
type Handler struct {
	searcher   Searcher
	summarizer Summarizer
	processor  Processor
	store      *state.Store
}

// New creates the upstream handler.
func New(searcher Searcher, summarizer Summarizer, processor Processor, store *state.Store) *Handler {
	return &Handler{
		searcher:   searcher,
		summarizer: summarizer,
		processor:  processor,
		store:      store,
	}
}

// NewRouter wires the upstream routes with the standard middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Post("/search", h.handleSearch)
	r.Post("/process", h.handleProcess)
	r.Post("/clear-session", h.handleClearSession)

	return r
}

type searchResponse struct {
	Query        string `json:"query"`
	Summary      string `json:"summary"`
	ResultsCount int    `json:"results_count"`
}

type processResponse struct {
	ChatText        string              `json:"chat_response"`
	ResultsModified bool                `json:"results_modified"`
	FilteredResults []profile.RawRecord `json:"filtered_results"`
	ResultsCount    int                 `json:"results_count"`
	OriginalQuery   string              `json:"original_query"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Query == "" {
		utils.RespondError(w, http.StatusBadRequest, "query is required")
		return
	}

	docs, err := h.searcher.Search(r.Context(), payload.Query)
	if err != nil {
		log.Printf("[upstream] search failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	summary, err := h.summarizer.Summarize(r.Context(), docs)
	if err != nil {
		log.Printf("[upstream] summarization failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	// The parsed records are the canonical set /process operates on; the
	// raw summary still travels to the client for its own extraction.
	records := parser.ExtractRaw(summary)
	h.store.SetSearch(payload.Query, records)

	utils.RespondJSON(w, http.StatusOK, searchResponse{
		Query:        payload.Query,
		Summary:      summary,
		ResultsCount: len(records),
	})
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Instruction string `json:"instruction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Instruction == "" {
		utils.RespondError(w, http.StatusBadRequest, "instruction is required")
		return
	}

	query, profiles := h.store.Current()

	outcome, err := h.processor.Process(r.Context(), profiles, payload.Instruction)
	if err != nil {
		log.Printf("[upstream] instruction processing failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	count := len(profiles)
	if outcome.ResultsModified {
		h.store.SetProfiles(outcome.FilteredResults)
		count = len(outcome.FilteredResults)
	}

	filtered := outcome.FilteredResults
	if filtered == nil {
		filtered = []profile.RawRecord{}
	}

	utils.RespondJSON(w, http.StatusOK, processResponse{
		ChatText:        outcome.ChatText,
		ResultsModified: outcome.ResultsModified,
		FilteredResults: filtered,
		ResultsCount:    count,
		OriginalQuery:   query,
	})
}

func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
