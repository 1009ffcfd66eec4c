package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswap-platform/internal/apperr"
	"github.com/Leganyst/slotswap-platform/internal/calendar"
	"github.com/Leganyst/slotswap-platform/internal/model"
	"github.com/Leganyst/slotswap-platform/internal/service"
)

// ListEvents — GET /api/events: слоты владельца.
func (a *API) ListEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := UserIDFromContext(r.Context())

	slots, err := a.slots.ListMine(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": toSlotListJSON(slots)})
}

// CreateEvent — POST /api/events: новый слот в статусе BUSY.
func (a *API) CreateEvent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := UserIDFromContext(r.Context())

	var input struct {
		Title       string    `json:"title"`
		StartTime   time.Time `json:"startTime"`
		EndTime     time.Time `json:"endTime"`
		Description string    `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperr.InvalidArg("invalid JSON body"))
		return
	}

	owner, err := a.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, apperr.Unauthorized("unknown user"))
			return
		}
		writeError(w, err)
		return
	}

	slot, err := a.slots.CreateSlot(r.Context(), owner.ID, input.Title, input.StartTime, input.EndTime, input.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"event": toSlotJSON(slot)})
}

// UpdateEvent — PUT /api/events/:id: атрибуты и/или переключение статуса.
func (a *API) UpdateEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := UserIDFromContext(r.Context())
	slotID := ps.ByName("id")

	var input struct {
		Title       *string    `json:"title"`
		StartTime   *time.Time `json:"startTime"`
		EndTime     *time.Time `json:"endTime"`
		Description *string    `json:"description"`
		Status      *string    `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperr.InvalidArg("invalid JSON body"))
		return
	}

	var slot *model.Slot
	var err error

	if input.Title != nil || input.StartTime != nil || input.EndTime != nil || input.Description != nil {
		slot, err = a.slots.UpdateSlot(r.Context(), slotID, userID, service.SlotUpdate{
			Title:       input.Title,
			Description: input.Description,
			StartsAt:    input.StartTime,
			EndsAt:      input.EndTime,
		})
		if err != nil {
			writeError(w, err)
			return
		}
	}

	// Переключение BUSY ↔ SWAPPABLE идёт через движок переговоров.
	if input.Status != nil {
		slot, err = a.swaps.SetSlotStatus(r.Context(), slotID, userID, model.SlotStatus(*input.Status))
		if err != nil {
			writeError(w, err)
			return
		}
	}

	if slot == nil {
		writeError(w, apperr.InvalidArg("nothing to update"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"event": toSlotJSON(slot)})
}

// DeleteEvent — DELETE /api/events/:id.
func (a *API) DeleteEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := UserIDFromContext(r.Context())

	if err := a.swaps.DeleteSlot(r.Context(), ps.ByName("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// Marketplace — GET /api/swappable-slots: чужие SWAPPABLE-слоты с владельцами.
func (a *API) Marketplace(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := UserIDFromContext(r.Context())

	slots, err := a.slots.Marketplace(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	paged := calendar.Paginate(toSlotListJSON(slots), page, pageSize)

	writeJSON(w, http.StatusOK, map[string]any{
		"slots":    paged.Items,
		"page":     paged.Page,
		"pageSize": paged.PageSize,
		"total":    paged.Total,
		"hasNext":  paged.HasNext,
	})
}
