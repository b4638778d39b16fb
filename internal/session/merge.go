package session

import (
	"github.com/adjebara/people-search/backend/internal/gateway"
	"github.com/adjebara/people-search/backend/internal/model/chat"
	"github.com/adjebara/people-search/backend/internal/model/profile"
)

// mergeLocked folds an instruction response into the session. The assistant
// reply always lands in the transcript. The profile set is replaced only
// when upstream says it modified the results AND actually sent the
// filtered_results field; an empty array is a legitimate replacement (the
// instruction filtered everyone out), an absent field is not.
//
// resultsCount is taken from the response verbatim. Upstream occasionally
// reports a count that disagrees with the rows it sent; both values are
// kept as given instead of papering over the mismatch.
func (e *Engine) mergeLocked(result gateway.InstructResult) {
	e.transcript = append(e.transcript, chat.New(chat.RoleAssistant, result.ChatText))

	if !result.ResultsModified || result.FilteredResults == nil {
		return
	}

	records := make([]profile.Record, 0, len(result.FilteredResults))
	for i, raw := range result.FilteredResults {
		records = append(records, raw.Normalize(i, e.score()))
	}
	e.profiles = records
	e.resultsCount = result.ResultsCount
	if result.OriginalQuery != "" {
		e.activeQuery = result.OriginalQuery
	}
}
