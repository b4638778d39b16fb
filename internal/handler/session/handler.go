package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	sessionEngine "github.com/adjebara/people-search/backend/internal/session"
	"github.com/adjebara/people-search/backend/pkg/utils"
)

// Handler exposes the session engine over HTTP for the web UI.
type Handler struct {
	engine *sessionEngine.Engine
}

// New creates the session handler.
func New(engine *sessionEngine.Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes mounts the session endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/search", h.handleSearch)
	r.Post("/instructions", h.handleInstruction)
	r.Post("/session/reset", h.handleReset)
	r.Get("/session", h.handleSnapshot)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.engine.SubmitSearch(r.Context(), payload.Query)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleInstruction(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Instruction string `json:"instruction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.engine.SubmitInstruction(r.Context(), payload.Instruction)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Reset(r.Context())
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.engine.Snapshot())
}

// respondEngineError maps engine errors onto HTTP statuses: validation
// errors are the caller's fault, in-flight and stale conditions are
// conflicts, anything else is an upstream failure.
func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessionEngine.ErrQueryRequired),
		errors.Is(err, sessionEngine.ErrInstructionRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sessionEngine.ErrSearchInFlight),
		errors.Is(err, sessionEngine.ErrInstructionInFlight),
		errors.Is(err, sessionEngine.ErrStaleResponse):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondError(w, http.StatusBadGateway, err.Error())
	}
}
