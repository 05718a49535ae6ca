// Package session manages one resumable attempt per quiz: the realized
// question/option ordering, the countdown timer, and the navigation position.
// It is deliberately ignorant of answer content; answers live under their own
// key so the two can be cleared and restored independently.
package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"edusat-quiz-engine/internal/domain"
	"edusat-quiz-engine/internal/store"
)

// Manager persists attempt state through a store.KV. All mutating operations
// read-modify-write the session entry under a single lock, so concurrent
// callers in one process never observe a partial write.
type Manager struct {
	kv  store.KV
	mu  sync.Mutex
	now func() time.Time
	rnd *rand.Rand
}

func NewManager(kv store.KV) *Manager {
	return newManager(kv, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewManagerWithClock allows deterministic timestamps and shuffles in tests.
func NewManagerWithClock(kv store.KV, now func() time.Time, rnd *rand.Rand) *Manager {
	return newManager(kv, now, rnd)
}

func newManager(kv store.KV, now func() time.Time, rnd *rand.Rand) *Manager {
	return &Manager{kv: kv, now: now, rnd: rnd}
}

// Start begins a brand-new attempt, rolling fresh question/option orders and
// resetting the timer. Any previous session for the quiz is overwritten.
func (m *Manager) Start(ctx context.Context, quiz domain.Quiz) (domain.QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s := domain.QuizSession{
		QuizID:       quiz.ID,
		StartedAt:    now,
		CurrentIndex: 0,
		UpdatedAt:    now,
	}
	if quiz.Timed() {
		s.TimeLimitSec = quiz.TimeLimitSec
		s.RemainingSec = quiz.TimeLimitSec
		s.Running = true
	}
	if quiz.ShuffleQuestions {
		s.QuestionOrder = m.shuffledIDs(quiz.Questions)
	}
	if quiz.ShuffleOptions {
		s.OptionsOrder = m.shuffledOptions(quiz.Questions)
	}
	return s, m.save(ctx, s)
}

// Resume rehydrates the persisted session for the quiz, or starts a fresh
// attempt when none exists. A resumed session keeps its captured orders
// exactly; nothing is re-rolled.
func (m *Manager) Resume(ctx context.Context, quiz domain.Quiz) (domain.QuizSession, error) {
	if s, ok := m.Load(ctx, quiz.ID); ok {
		return s, nil
	}
	return m.Start(ctx, quiz)
}

// Load returns the persisted session, if any. Corrupt entries read as absent.
func (m *Manager) Load(ctx context.Context, quizID string) (domain.QuizSession, bool) {
	var s domain.QuizSession
	if !store.GetJSON(ctx, m.kv, store.SessionKey(quizID), &s) {
		return domain.QuizSession{}, false
	}
	if s.QuizID != quizID {
		return domain.QuizSession{}, false
	}
	return s, true
}

// Advance moves the navigation position, clamped to [0, questionCount-1],
// and persists it so a reload resumes at the same question.
func (m *Manager) Advance(ctx context.Context, quizID string, index, questionCount int) (domain.QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Load(ctx, quizID)
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if index < 0 {
		index = 0
	}
	if max := questionCount - 1; index > max {
		index = max
	}
	if index < 0 {
		index = 0
	}
	s.CurrentIndex = index
	return s, m.save(ctx, s)
}

// Tick charges elapsed wall-clock time against the countdown. It returns the
// remaining seconds and whether the timer just hit zero. Untimed and paused
// sessions are never charged.
func (m *Manager) Tick(ctx context.Context, quizID string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Load(ctx, quizID)
	if !ok {
		return 0, false, domain.ErrSessionNotFound
	}
	if s.TimeLimitSec == 0 {
		return 0, false, nil
	}

	if s.Running {
		now := m.now()
		elapsed := int(now.Sub(s.UpdatedAt) / time.Second)
		if elapsed > 0 {
			s.RemainingSec -= elapsed
			// Advance the charge stamp only by the charged whole seconds so
			// sub-second remainders accumulate across ticks instead of being
			// discarded.
			s.UpdatedAt = s.UpdatedAt.Add(time.Duration(elapsed) * time.Second)
			if s.RemainingSec <= 0 {
				s.RemainingSec = 0
				s.Running = false
			}
		}
	}
	if err := m.save(ctx, s); err != nil {
		return s.RemainingSec, false, err
	}
	return s.RemainingSec, s.RemainingSec == 0, nil
}

// SetRunning pauses or resumes the countdown without resetting it. Pausing
// charges the whole seconds elapsed so far; resuming shifts the charge stamp
// past the paused interval, so paused wall time is never charged but the
// sub-second remainder from before the pause is not forgiven.
func (m *Manager) SetRunning(ctx context.Context, quizID string, running bool) (domain.QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Load(ctx, quizID)
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if s.TimeLimitSec == 0 || s.RemainingSec == 0 {
		return s, nil
	}

	switch {
	case s.Running && !running:
		now := m.now()
		elapsed := int(now.Sub(s.UpdatedAt) / time.Second)
		if elapsed > 0 {
			s.RemainingSec -= elapsed
			if s.RemainingSec < 0 {
				s.RemainingSec = 0
			}
			s.UpdatedAt = s.UpdatedAt.Add(time.Duration(elapsed) * time.Second)
		}
		s.PausedAt = now
	case !s.Running && running:
		// Shift the charge stamp so the paused interval is free while the
		// sub-second remainder accrued before the pause still counts.
		now := m.now()
		if s.PausedAt.IsZero() {
			s.UpdatedAt = now
		} else {
			s.UpdatedAt = now.Add(-s.PausedAt.Sub(s.UpdatedAt))
		}
		s.PausedAt = time.Time{}
	}
	s.Running = running && s.RemainingSec > 0
	return s, m.save(ctx, s)
}

// Clear removes all session state for the quiz. Called on submission, explicit
// retake, or abandon.
func (m *Manager) Clear(ctx context.Context, quizID string) error {
	return m.kv.Delete(ctx, store.SessionKey(quizID))
}

// save persists the session as-is. UpdatedAt doubles as the timer charge
// stamp, so only operations that account for elapsed time touch it.
func (m *Manager) save(ctx context.Context, s domain.QuizSession) error {
	return store.SetJSON(ctx, m.kv, store.SessionKey(s.QuizID), s)
}

func (m *Manager) shuffledIDs(questions []domain.Question) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	m.rnd.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}

func (m *Manager) shuffledOptions(questions []domain.Question) map[string][]string {
	orders := make(map[string][]string)
	for _, q := range questions {
		if len(q.Options) < 2 {
			continue
		}
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		m.rnd.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
		orders[q.ID] = opts
	}
	return orders
}
