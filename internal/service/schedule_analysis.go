package service

import (
	"context"
	"time"

	"github.com/Leganyst/slotswap-platform/internal/model"
)

// ScheduleAnalysis — сводка по календарю пользователя, считается на лету.
type ScheduleAnalysis struct {
	TotalSlots     int            `json:"totalSlots"`
	ByStatus       map[string]int `json:"byStatus"`
	BusiestWeekday string         `json:"busiestWeekday"`
	SwappableHours float64        `json:"swappableHours"`
}

// Analyze возвращает сводку по всем слотам пользователя.
func (s *SuggestionService) Analyze(ctx context.Context, userID string) (*ScheduleAnalysis, error) {
	slots, err := s.slotRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	analysis := &ScheduleAnalysis{
		TotalSlots: len(slots),
		ByStatus: map[string]int{
			string(model.SlotStatusBusy):        0,
			string(model.SlotStatusSwappable):   0,
			string(model.SlotStatusSwapPending): 0,
		},
	}

	byWeekday := make(map[time.Weekday]time.Duration)
	for _, slot := range slots {
		analysis.ByStatus[string(slot.Status)]++
		byWeekday[slot.StartsAt.Weekday()] += slot.Duration()
		if slot.Status == model.SlotStatusSwappable {
			analysis.SwappableHours += slot.Duration().Hours()
		}
	}

	var busiest time.Weekday
	var max time.Duration
	for day, total := range byWeekday {
		if total > max || (total == max && day < busiest) {
			busiest = day
			max = total
		}
	}
	if max > 0 {
		analysis.BusiestWeekday = busiest.String()
	}

	return analysis, nil
}
