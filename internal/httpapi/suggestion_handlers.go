package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// SwapSuggestions — POST /api/ai/swap-suggestions: ранжированные кандидаты
// на обмен для текущего пользователя.
func (a *API) SwapSuggestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := UserIDFromContext(r.Context())

	suggestions, err := a.suggest.Suggest(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]suggestionJSON, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, toSuggestionJSON(s))
	}

	writeJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

// ScheduleAnalysis — GET /api/ai/schedule-analysis: сводка по календарю.
func (a *API) ScheduleAnalysis(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := UserIDFromContext(r.Context())

	analysis, err := a.suggest.Analyze(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"analysis": analysis})
}
