package httpapi

import (
	"time"

	"github.com/Leganyst/slotswap-platform/internal/model"
	"github.com/Leganyst/slotswap-platform/internal/service"
)

type slotJSON struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	StartTime   time.Time         `json:"startTime"`
	EndTime     time.Time         `json:"endTime"`
	Status      model.SlotStatus  `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	Owner       *model.PublicUser `json:"owner,omitempty"`
}

func toSlotJSON(s *model.Slot) slotJSON {
	out := slotJSON{
		ID:          s.ID.String(),
		Title:       s.Title,
		Description: s.Description,
		StartTime:   s.StartsAt,
		EndTime:     s.EndsAt,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
	}
	if s.Owner != nil {
		owner := s.Owner.Public()
		out.Owner = &owner
	}
	return out
}

func toSlotListJSON(slots []model.Slot) []slotJSON {
	out := make([]slotJSON, 0, len(slots))
	for i := range slots {
		out = append(out, toSlotJSON(&slots[i]))
	}
	return out
}

type swapRequestJSON struct {
	ID            string                  `json:"id"`
	Status        model.SwapRequestStatus `json:"status"`
	CreatedAt     time.Time               `json:"createdAt"`
	ResolvedAt    *time.Time              `json:"resolvedAt,omitempty"`
	IsIncoming    bool                    `json:"isIncoming"`
	Requester     *model.PublicUser       `json:"requester,omitempty"`
	Target        *model.PublicUser       `json:"target,omitempty"`
	RequesterSlot *slotJSON               `json:"requesterSlot,omitempty"`
	TargetSlot    *slotJSON               `json:"targetSlot,omitempty"`
}

func toSwapRequestJSON(req *model.SwapRequest, callerID string) swapRequestJSON {
	out := swapRequestJSON{
		ID:         req.ID.String(),
		Status:     req.Status,
		CreatedAt:  req.CreatedAt,
		ResolvedAt: req.ResolvedAt,
		IsIncoming: req.TargetID.String() == callerID,
	}
	if req.Requester != nil {
		u := req.Requester.Public()
		out.Requester = &u
	}
	if req.Target != nil {
		u := req.Target.Public()
		out.Target = &u
	}
	if req.RequesterSlot != nil {
		s := toSlotJSON(req.RequesterSlot)
		out.RequesterSlot = &s
	}
	if req.TargetSlot != nil {
		s := toSlotJSON(req.TargetSlot)
		out.TargetSlot = &s
	}
	return out
}

type suggestionJSON struct {
	MySlot      slotJSON          `json:"mySlot"`
	TargetSlot  slotJSON          `json:"targetSlot"`
	TargetOwner *model.PublicUser `json:"targetOwner,omitempty"`
	Score       float64           `json:"score"`
	Rationale   string            `json:"rationale"`
}

func toSuggestionJSON(s service.Suggestion) suggestionJSON {
	out := suggestionJSON{
		MySlot:     toSlotJSON(&s.MySlot),
		TargetSlot: toSlotJSON(&s.TargetSlot),
		Score:      s.Score,
		Rationale:  s.Rationale,
	}
	if s.TargetSlot.Owner != nil {
		owner := s.TargetSlot.Owner.Public()
		out.TargetOwner = &owner
	}
	return out
}
