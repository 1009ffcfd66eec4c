package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Leganyst/slotswap-platform/internal/calendar"
	"github.com/Leganyst/slotswap-platform/internal/model"
	"github.com/Leganyst/slotswap-platform/internal/repository"
)

// Весовые коэффициенты скоринга и размер выдачи.
const (
	weightTemporal  = 0.45
	weightDuration  = 0.35
	weightDiversity = 0.20

	maxSuggestions = 10

	// Зазор, при котором близость по времени падает вдвое.
	proximityHalfGap = 24 * time.Hour
)

// Suggestion — кандидат на обмен: пара "мой слот — чужой слот" с оценкой
// совместимости в [0,1]. Эфемерно, никогда не сохраняется.
type Suggestion struct {
	MySlot     model.Slot
	TargetSlot model.Slot
	Score      float64
	Rationale  string
}

// SuggestionService — компонент подбора кандидатов на обмен.
// Только чтение: состояние слотов и заявок не меняется, предложение —
// сугубо рекомендательное, проверки ProposeSwap оно не обходит.
type SuggestionService struct {
	slotRepo repository.SlotRepository
}

func NewSuggestionService(slotRepo repository.SlotRepository) *SuggestionService {
	return &SuggestionService{slotRepo: slotRepo}
}

// Suggest возвращает ранжированный список кандидатов на обмен для
// пользователя: его SWAPPABLE-слоты против маркетплейса остальных.
func (s *SuggestionService) Suggest(ctx context.Context, userID string) ([]Suggestion, error) {
	mine, err := s.slotRepo.ListSwappableByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	theirs, err := s.slotRepo.ListMarketplace(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ScoreSlots(mine, theirs), nil
}

// ScoreSlots ранжирует все пары (mine × theirs).
//
// Оценка пары: weightTemporal·временная совместимость +
// weightDuration·похожесть длительностей + weightDiversity·разнообразие
// контрагентов в выдаче. Пересекающиеся окна всегда оцениваются выше
// непересекающихся; при равных оценках первым идёт более свежий слот
// маркетплейса. Выдача ограничена maxSuggestions.
func ScoreSlots(mine, theirs []model.Slot) []Suggestion {
	type candidate struct {
		mySlot     model.Slot
		targetSlot model.Slot
		base       float64
		temporal   float64
		duration   float64
	}

	candidates := make([]candidate, 0, len(mine)*len(theirs))
	for _, my := range mine {
		myRange := calendar.TimeRange{Start: my.StartsAt, End: my.EndsAt}
		for _, their := range theirs {
			theirRange := calendar.TimeRange{Start: their.StartsAt, End: their.EndsAt}
			t := temporalScore(myRange, theirRange)
			d := durationScore(myRange, theirRange)
			candidates = append(candidates, candidate{
				mySlot:     my,
				targetSlot: their,
				base:       weightTemporal*t + weightDuration*d,
				temporal:   t,
				duration:   d,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].base != candidates[j].base {
			return candidates[i].base > candidates[j].base
		}
		return candidates[i].targetSlot.CreatedAt.After(candidates[j].targetSlot.CreatedAt)
	})

	// Скидка за повторы одного контрагента: первый слот пользователя в выдаче
	// получает полный кредит разнообразия, дальнейшие — убывающий.
	seen := make(map[string]int)
	suggestions := make([]Suggestion, 0, maxSuggestions)
	for _, c := range candidates {
		owner := c.targetSlot.OwnerID.String()
		diversity := 1.0 / float64(1+seen[owner])
		seen[owner]++

		score := c.base + weightDiversity*diversity
		if score > 1 {
			score = 1
		}
		suggestions = append(suggestions, Suggestion{
			MySlot:     c.mySlot,
			TargetSlot: c.targetSlot,
			Score:      score,
			Rationale:  rationale(c.temporal, c.duration, c.mySlot, c.targetSlot),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].TargetSlot.CreatedAt.After(suggestions[j].TargetSlot.CreatedAt)
	})

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// temporalScore ∈ [0,1]. Пересекающиеся окна получают 0.5..1.0
// пропорционально доле пересечения; непересекающиеся — до 0.5 с убыванием
// по мере роста зазора.
func temporalScore(a, b calendar.TimeRange) float64 {
	overlap := a.OverlapDuration(b)
	if overlap > 0 {
		shorter := a.Duration()
		if b.Duration() < shorter {
			shorter = b.Duration()
		}
		frac := float64(overlap) / float64(shorter)
		return 0.5 + 0.5*frac
	}

	gap := a.Gap(b)
	return 0.5 * float64(proximityHalfGap) / float64(proximityHalfGap+gap)
}

// durationScore ∈ [0,1] — отношение меньшей длительности к большей.
func durationScore(a, b calendar.TimeRange) float64 {
	da, db := a.Duration(), b.Duration()
	if da <= 0 || db <= 0 {
		return 0
	}
	if da > db {
		da, db = db, da
	}
	return float64(da) / float64(db)
}

// rationale — короткая фактическая строка о паре; развёрнутый текст
// генерирует внешний сервис рассуждений.
func rationale(temporal, duration float64, my, their model.Slot) string {
	timing := "distant time windows"
	switch {
	case temporal >= 0.5:
		timing = "overlapping time windows"
	case temporal >= 0.25:
		timing = "nearby time windows"
	}

	sizing := "different durations"
	if duration >= 0.75 {
		sizing = "similar durations"
	}

	return fmt.Sprintf("%q and %q: %s, %s", my.Title, their.Title, timing, sizing)
}
