package session

import (
	"context"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"edusat-quiz-engine/internal/domain"
	"edusat-quiz-engine/internal/infra/memory"
	"edusat-quiz-engine/internal/store"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(kv store.KV) (*Manager, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)}
	return NewManagerWithClock(kv, clock.Now, rand.New(rand.NewSource(1))), clock
}

func timedQuiz() domain.Quiz {
	return domain.Quiz{
		ID:           "quiz-1",
		ChapterID:    "c1",
		TimeLimitSec: 60,
		Questions: []domain.Question{
			{ID: "q1", Type: domain.Text, CorrectAnswer: domain.TextAnswer("a")},
			{ID: "q2", Type: domain.Text, CorrectAnswer: domain.TextAnswer("b")},
			{ID: "q3", Type: domain.Text, CorrectAnswer: domain.TextAnswer("c")},
		},
	}
}

func TestStartInitializesTimedSession(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(memory.NewKV())

	s, err := m.Start(ctx, timedQuiz())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.RemainingSec != 60 || !s.Running {
		t.Fatalf("expected running 60s countdown, got %+v", s)
	}
	if s.CurrentIndex != 0 || !s.StartedAt.Equal(clock.Now()) {
		t.Fatalf("expected fresh position and start stamp, got %+v", s)
	}
}

func TestSessionRoundTripAcrossReload(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	m, _ := newTestManager(kv)

	quiz := timedQuiz()
	quiz.ShuffleQuestions = true
	quiz.ShuffleOptions = true
	quiz.Questions[0].Options = []string{"A", "B", "C"}
	quiz.Questions[0].Type = domain.SingleChoice
	quiz.Questions[0].CorrectAnswer = domain.TextAnswer("A")

	started, err := m.Start(ctx, quiz)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// A reload is a new manager over the same persisted store.
	m2, _ := newTestManager(kv)
	loaded, ok := m2.Load(ctx, quiz.ID)
	if !ok {
		t.Fatalf("expected persisted session after reload")
	}
	if !reflect.DeepEqual(started, loaded) {
		t.Fatalf("round-trip mismatch:\nsaved  %+v\nloaded %+v", started, loaded)
	}
}

func TestResumeKeepsCapturedOrder(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(memory.NewKV())

	quiz := timedQuiz()
	quiz.ShuffleQuestions = true

	first, err := m.Start(ctx, quiz)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(first.QuestionOrder) != 3 {
		t.Fatalf("expected captured order, got %+v", first.QuestionOrder)
	}

	second, err := m.Resume(ctx, quiz)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !reflect.DeepEqual(first.QuestionOrder, second.QuestionOrder) {
		t.Fatalf("resume re-shuffled: %v vs %v", first.QuestionOrder, second.QuestionOrder)
	}

	// A brand-new attempt rolls independently: still a permutation of the
	// quiz's question ids.
	if err := m.Clear(ctx, quiz.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	fresh, err := m.Resume(ctx, quiz)
	if err != nil {
		t.Fatalf("resume after clear: %v", err)
	}
	if !samePool([]string{"q1", "q2", "q3"}, fresh.QuestionOrder) {
		t.Fatalf("expected permutation of question ids, got %v", fresh.QuestionOrder)
	}
}

func TestAdvanceClamps(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(memory.NewKV())
	quiz := timedQuiz()
	if _, err := m.Start(ctx, quiz); err != nil {
		t.Fatalf("start: %v", err)
	}

	s, err := m.Advance(ctx, quiz.ID, 99, len(quiz.Questions))
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if s.CurrentIndex != 2 {
		t.Fatalf("expected clamp to last question, got %d", s.CurrentIndex)
	}

	s, err = m.Advance(ctx, quiz.ID, -5, len(quiz.Questions))
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if s.CurrentIndex != 0 {
		t.Fatalf("expected clamp to 0, got %d", s.CurrentIndex)
	}

	// Position survives a reload.
	if _, err := m.Advance(ctx, quiz.ID, 1, len(quiz.Questions)); err != nil {
		t.Fatalf("advance: %v", err)
	}
	loaded, ok := m.Load(ctx, quiz.ID)
	if !ok || loaded.CurrentIndex != 1 {
		t.Fatalf("expected persisted position 1, got %+v", loaded)
	}
}

func TestTickChargesElapsedTime(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(memory.NewKV())
	quiz := timedQuiz()
	if _, err := m.Start(ctx, quiz); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(10 * time.Second)
	remaining, expired, err := m.Tick(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if remaining != 50 || expired {
		t.Fatalf("expected 50s remaining, got %d expired=%v", remaining, expired)
	}

	clock.Advance(55 * time.Second)
	remaining, expired, err = m.Tick(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if remaining != 0 || !expired {
		t.Fatalf("expected expiry, got remaining=%d expired=%v", remaining, expired)
	}

	s, _ := m.Load(ctx, quiz.ID)
	if s.Running {
		t.Fatalf("expected countdown stopped after expiry")
	}
}

func TestTickAccumulatesSubSecondElapsed(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(memory.NewKV())
	quiz := timedQuiz()
	if _, err := m.Start(ctx, quiz); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Ticking faster than once per second must still charge real time: the
	// fractional remainder carries over instead of being dropped.
	for i := 0; i < 4; i++ {
		clock.Advance(500 * time.Millisecond)
		if _, _, err := m.Tick(ctx, quiz.ID); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	remaining, _, err := m.Tick(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if remaining != 58 {
		t.Fatalf("expected 58s after 2s of 500ms ticks, got %d", remaining)
	}

	// The carried fraction also pairs with a later whole-second advance.
	clock.Advance(1500 * time.Millisecond)
	if remaining, _, _ = m.Tick(ctx, quiz.ID); remaining != 57 {
		t.Fatalf("expected 57s, got %d", remaining)
	}
	clock.Advance(500 * time.Millisecond)
	if remaining, _, _ = m.Tick(ctx, quiz.ID); remaining != 56 {
		t.Fatalf("expected 56s once the remainder completes a second, got %d", remaining)
	}
}

func TestPauseKeepsSubSecondRemainder(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(memory.NewKV())
	quiz := timedQuiz()
	if _, err := m.Start(ctx, quiz); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Rapid pause/resume cycles must not manufacture free time: every 500ms
	// of running wall clock counts even when no single stretch reaches a
	// whole second.
	for i := 0; i < 4; i++ {
		clock.Advance(500 * time.Millisecond)
		if _, err := m.SetRunning(ctx, quiz.ID, false); err != nil {
			t.Fatalf("pause %d: %v", i, err)
		}
		if _, err := m.SetRunning(ctx, quiz.ID, true); err != nil {
			t.Fatalf("resume %d: %v", i, err)
		}
	}
	clock.Advance(time.Second)
	remaining, _, err := m.Tick(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if remaining != 57 {
		t.Fatalf("expected 3s of running time charged, got %d remaining", remaining)
	}

	// The remainder survives an actual paused gap.
	clock.Advance(700 * time.Millisecond)
	if _, err := m.SetRunning(ctx, quiz.ID, false); err != nil {
		t.Fatalf("pause: %v", err)
	}
	clock.Advance(time.Hour)
	if _, err := m.SetRunning(ctx, quiz.ID, true); err != nil {
		t.Fatalf("resume: %v", err)
	}
	clock.Advance(300 * time.Millisecond)
	if remaining, _, _ = m.Tick(ctx, quiz.ID); remaining != 56 {
		t.Fatalf("expected carried 700ms plus 300ms to charge a second, got %d", remaining)
	}
}

func TestPauseStopsCharging(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(memory.NewKV())
	quiz := timedQuiz()
	if _, err := m.Start(ctx, quiz); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(10 * time.Second)
	s, err := m.SetRunning(ctx, quiz.ID, false)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if s.RemainingSec != 50 || s.Running {
		t.Fatalf("expected paused at 50s, got %+v", s)
	}

	// Paused wall time is free.
	clock.Advance(5 * time.Minute)
	if remaining, _, err := m.Tick(ctx, quiz.ID); err != nil || remaining != 50 {
		t.Fatalf("expected paused timer untouched, got %d (%v)", remaining, err)
	}

	s, err = m.SetRunning(ctx, quiz.ID, true)
	if err != nil {
		t.Fatalf("resume running: %v", err)
	}
	if !s.Running || s.RemainingSec != 50 {
		t.Fatalf("expected running again at 50s, got %+v", s)
	}
	clock.Advance(10 * time.Second)
	if remaining, _, _ := m.Tick(ctx, quiz.ID); remaining != 40 {
		t.Fatalf("expected 40s after resuming, got %d", remaining)
	}
}

func TestUntimedQuizNeverExpires(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(memory.NewKV())
	quiz := timedQuiz()
	quiz.TimeLimitSec = 0

	s, err := m.Start(ctx, quiz)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.Running || s.TimeLimitSec != 0 {
		t.Fatalf("expected untimed session, got %+v", s)
	}

	clock.Advance(time.Hour)
	remaining, expired, err := m.Tick(ctx, quiz.ID)
	if err != nil || expired {
		t.Fatalf("expected untimed tick no-op, got remaining=%d expired=%v err=%v", remaining, expired, err)
	}
}

func TestCorruptSessionReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	m, _ := newTestManager(kv)

	if err := kv.Set(ctx, store.SessionKey("quiz-1"), []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}
	if _, ok := m.Load(ctx, "quiz-1"); ok {
		t.Fatalf("expected corrupt session to read as absent")
	}

	// Resume falls back to a fresh start rather than failing.
	s, err := m.Resume(ctx, timedQuiz())
	if err != nil {
		t.Fatalf("resume over corrupt state: %v", err)
	}
	if s.RemainingSec != 60 {
		t.Fatalf("expected fresh session, got %+v", s)
	}
}

func TestTickWithoutSession(t *testing.T) {
	m, _ := newTestManager(memory.NewKV())
	if _, _, err := m.Tick(context.Background(), "missing"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
