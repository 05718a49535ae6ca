// Package attempts keeps the append-only per-quiz log of completed attempts
// behind the engine's "best attempt" and "last attempt" queries.
package attempts

import (
	"context"
	"sync"

	"edusat-quiz-engine/internal/domain"
	"edusat-quiz-engine/internal/store"
)

// DefaultCap bounds how many attempts are retained per quiz.
const DefaultCap = 50

// History stores attempts most-recent-first, capped; the oldest entries past
// the cap are discarded. Recorded attempts are never mutated.
type History struct {
	kv  store.KV
	cap int
	mu  sync.Mutex
}

func NewHistory(kv store.KV, maxAttempts int) *History {
	if maxAttempts <= 0 {
		maxAttempts = DefaultCap
	}
	return &History{kv: kv, cap: maxAttempts}
}

// Record prepends the attempt to the quiz's list and persists it.
func (h *History) Record(ctx context.Context, attempt domain.QuizAttempt) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.List(ctx, attempt.QuizID)
	list = append([]domain.QuizAttempt{attempt}, list...)
	if len(list) > h.cap {
		list = list[:h.cap]
	}
	return store.SetJSON(ctx, h.kv, store.AttemptsKey(attempt.QuizID), list)
}

// List returns the attempts for a quiz, most recent first. Entries that do
// not belong to the quiz (a corrupted or miskeyed write) are dropped.
func (h *History) List(ctx context.Context, quizID string) []domain.QuizAttempt {
	var list []domain.QuizAttempt
	if !store.GetJSON(ctx, h.kv, store.AttemptsKey(quizID), &list) {
		return nil
	}
	out := list[:0]
	for _, a := range list {
		if a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out
}

// Best returns the attempt with the highest percentage; ties go to the most
// recent.
func (h *History) Best(ctx context.Context, quizID string) (domain.QuizAttempt, bool) {
	list := h.List(ctx, quizID)
	if len(list) == 0 {
		return domain.QuizAttempt{}, false
	}
	best := list[0]
	for _, a := range list[1:] {
		if a.Percentage > best.Percentage {
			best = a
			continue
		}
		if a.Percentage == best.Percentage && a.CreatedAt.After(best.CreatedAt) {
			best = a
		}
	}
	return best, true
}

// Last returns the most recently recorded attempt.
func (h *History) Last(ctx context.Context, quizID string) (domain.QuizAttempt, bool) {
	list := h.List(ctx, quizID)
	if len(list) == 0 {
		return domain.QuizAttempt{}, false
	}
	return list[0], true
}

// Clear drops the history for a quiz.
func (h *History) Clear(ctx context.Context, quizID string) error {
	return h.kv.Delete(ctx, store.AttemptsKey(quizID))
}
