package gateway

import (
	"context"

	"github.com/adjebara/people-search/backend/internal/model/profile"
)

// SearchResult is the upstream response to a search call. Summary is the
// raw text handed to the parser; ResultsCount is upstream's own count and
// may disagree with whatever the parser extracts.
type SearchResult struct {
	Query        string `json:"query"`
	Summary      string `json:"summary"`
	ResultsCount int    `json:"results_count"`
}

// InstructResult is the upstream response to an instruction call.
// FilteredResults stays nil when the field is absent from the payload; an
// empty array decodes to an empty non-nil slice. The merge engine relies on
// that distinction.
type InstructResult struct {
	ChatText        string              `json:"chat_response"`
	ResultsModified bool                `json:"results_modified"`
	FilteredResults []profile.RawRecord `json:"filtered_results"`
	ResultsCount    int                 `json:"results_count"`
	OriginalQuery   string              `json:"original_query"`
}

// Gateway is the boundary to the upstream AI search service.
type Gateway interface {
	// Search runs a fresh people search.
	Search(ctx context.Context, query string) (SearchResult, error)
	// Instruct applies a free-text instruction to the current result set.
	Instruct(ctx context.Context, instruction string) (InstructResult, error)
	// Reset clears any server-side session state. Best-effort.
	Reset(ctx context.Context) error
}
