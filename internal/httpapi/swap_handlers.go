package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/Leganyst/slotswap-platform/internal/apperr"
	"github.com/Leganyst/slotswap-platform/internal/model"
)

// CreateSwapRequest — POST /api/swap-request.
func (a *API) CreateSwapRequest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := UserIDFromContext(r.Context())

	var input struct {
		MySlotID    string `json:"mySlotId"`
		TheirSlotID string `json:"theirSlotId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperr.InvalidArg("invalid JSON body"))
		return
	}
	if input.MySlotID == "" || input.TheirSlotID == "" {
		writeError(w, apperr.InvalidArg("mySlotId and theirSlotId are required"))
		return
	}

	req, err := a.swaps.ProposeSwap(r.Context(), userID, input.MySlotID, input.TheirSlotID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"request": toSwapRequestJSON(req, userID)})
}

// RespondToSwap — POST /api/swap-response/:requestId.
func (a *API) RespondToSwap(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := UserIDFromContext(r.Context())

	var input struct {
		Accepted bool `json:"accepted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperr.InvalidArg("invalid JSON body"))
		return
	}

	req, err := a.swaps.Respond(r.Context(), ps.ByName("requestId"), userID, input.Accepted)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"request": toSwapRequestJSON(req, userID)})
}

// ListSwapRequests — GET /api/swap-requests?type=incoming|outgoing|accepted|declined|all.
func (a *API) ListSwapRequests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := UserIDFromContext(r.Context())

	reqs, err := a.swaps.ListRequests(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	filter := r.URL.Query().Get("type")
	out := make([]swapRequestJSON, 0, len(reqs))
	for i := range reqs {
		item := toSwapRequestJSON(&reqs[i], userID)
		if !matchesFilter(item, filter) {
			continue
		}
		out = append(out, item)
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": out})
}

func matchesFilter(req swapRequestJSON, filter string) bool {
	switch filter {
	case "incoming":
		return req.IsIncoming && req.Status == model.SwapRequestStatusPending
	case "outgoing":
		return !req.IsIncoming && req.Status == model.SwapRequestStatusPending
	case "accepted":
		return req.Status == model.SwapRequestStatusAccepted
	case "declined":
		return req.Status == model.SwapRequestStatusRejected
	default:
		return true
	}
}

// SwapRequestHistory — GET /api/swap-requests/:requestId/history:
// аудиторский след заявки, доступен только её сторонам.
func (a *API) SwapRequestHistory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := UserIDFromContext(r.Context())
	requestID := ps.ByName("requestId")

	if _, err := a.swaps.GetRequest(r.Context(), requestID, userID); err != nil {
		writeError(w, err)
		return
	}

	events, err := a.events.ListByRequest(r.Context(), requestID)
	if err != nil {
		writeError(w, err)
		return
	}

	type eventJSON struct {
		Type      model.EventType `json:"type"`
		CreatedAt string          `json:"createdAt"`
		Payload   json.RawMessage `json:"payload,omitempty"`
	}
	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, eventJSON{
			Type:      e.EventType,
			CreatedAt: e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Payload:   json.RawMessage(e.Payload),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": out})
}
