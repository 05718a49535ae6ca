package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"edusat-quiz-engine/internal/attempts"
	"edusat-quiz-engine/internal/domain"
	"edusat-quiz-engine/internal/grading"
	"edusat-quiz-engine/internal/progress"
	"edusat-quiz-engine/internal/session"
	"edusat-quiz-engine/internal/store"
)

// Catalog is the read-only quiz definition lookup the engine consumes. The
// engine never mutates catalog data.
type Catalog interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	GetQuizByChapter(ctx context.Context, chapterID string) (domain.Quiz, error)
}

// Engine wires the quiz subsystem together: session lifecycle, answer
// capture, grading, attempt history, and the progress ledger. On submit it
// runs the bookkeeping as an explicit saga (persist result, record attempt,
// mark progress, clear attempt state) in that order, so an interrupted run
// leaves earlier steps' effects in place and the result alone is enough to
// retry the rest.
type Engine struct {
	catalog  Catalog
	kv       store.KV
	sessions *session.Manager
	answers  *session.Answers
	history  *attempts.History
	ledger   *progress.Ledger
	now      func() time.Time
	newID    func() string
}

func NewEngine(catalog Catalog, kv store.KV) *Engine {
	return NewEngineWithCap(catalog, kv, attempts.DefaultCap)
}

// NewEngineWithCap overrides the attempt history cap; zero or negative falls
// back to the default.
func NewEngineWithCap(catalog Catalog, kv store.KV, attemptCap int) *Engine {
	return newEngine(catalog, kv, attemptCap, time.Now,
		rand.New(rand.NewSource(time.Now().UnixNano())), uuid.NewString)
}

// NewEngineWithClock allows deterministic timestamps, shuffles, and attempt
// IDs in tests, and a custom attempt cap.
func NewEngineWithClock(catalog Catalog, kv store.KV, attemptCap int, now func() time.Time, rnd *rand.Rand, newID func() string) *Engine {
	return newEngine(catalog, kv, attemptCap, now, rnd, newID)
}

func newEngine(catalog Catalog, kv store.KV, attemptCap int, now func() time.Time, rnd *rand.Rand, newID func() string) *Engine {
	return &Engine{
		catalog:  catalog,
		kv:       kv,
		sessions: session.NewManagerWithClock(kv, now, rnd),
		answers:  session.NewAnswers(kv),
		history:  attempts.NewHistory(kv, attemptCap),
		ledger:   progress.NewLedger(kv),
		now:      now,
		newID:    newID,
	}
}

// Ledger exposes the progress ledger for presentation surfaces (lesson
// toggles, chapter summaries, change subscriptions).
func (e *Engine) Ledger() *progress.Ledger { return e.ledger }

// History exposes the attempt log for hub views.
func (e *Engine) History() *attempts.History { return e.history }

// AttemptView is everything a quiz-taking surface needs to render an attempt.
type AttemptView struct {
	Quiz    domain.Quiz         `json:"quiz"` // questions in attempt order
	Session *domain.QuizSession `json:"session,omitempty"`
	Answers domain.AnswerMap    `json:"answers"`
	Result  *domain.QuizResult  `json:"result,omitempty"`
}

// Resume returns the current attempt for a quiz, starting one if none exists.
// When a submitted result is on record the quiz is shown for review instead:
// declared question order, no session, the graded result attached.
func (e *Engine) Resume(ctx context.Context, quizID string) (AttemptView, error) {
	quiz, err := e.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return AttemptView{}, err
	}

	if result, err := e.Result(ctx, quizID); err == nil {
		return AttemptView{
			Quiz:    quiz,
			Answers: e.answers.Load(ctx, quizID),
			Result:  &result,
		}, nil
	}

	s, err := e.sessions.Resume(ctx, quiz)
	if err != nil {
		return AttemptView{}, err
	}
	quiz.Questions = session.OrderQuestions(quiz, s)
	return AttemptView{
		Quiz:    quiz,
		Session: &s,
		Answers: e.answers.Load(ctx, quizID),
	}, nil
}

// SaveAnswer records one submitted value. An empty value un-answers the
// question.
func (e *Engine) SaveAnswer(ctx context.Context, quizID, questionID string, v domain.AnswerValue) error {
	quiz, err := e.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if _, ok := quiz.QuestionByID(questionID); !ok {
		return domain.ErrQuestionNotFound
	}
	_, err = e.answers.Save(ctx, quizID, questionID, v)
	return err
}

// Navigate moves the attempt's position, clamped to the question range.
func (e *Engine) Navigate(ctx context.Context, quizID string, index int) (domain.QuizSession, error) {
	quiz, err := e.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizSession{}, err
	}
	return e.sessions.Advance(ctx, quizID, index, len(quiz.Questions))
}

// TickStatus reports the countdown after a tick.
type TickStatus struct {
	RemainingSec int                `json:"remainingSec"`
	Unlimited    bool               `json:"unlimited"`
	Expired      bool               `json:"expired"`
	Result       *domain.QuizResult `json:"result,omitempty"` // set when expiry auto-submitted
}

// Tick charges elapsed time against the attempt's countdown. Expiry forces a
// non-interactive submission with whatever answers exist; the returned status
// carries the graded result.
func (e *Engine) Tick(ctx context.Context, quizID string) (TickStatus, error) {
	s, ok := e.sessions.Load(ctx, quizID)
	if !ok {
		return TickStatus{}, domain.ErrSessionNotFound
	}
	if s.TimeLimitSec == 0 {
		return TickStatus{Unlimited: true}, nil
	}

	remaining, expired, err := e.sessions.Tick(ctx, quizID)
	if err != nil {
		return TickStatus{}, err
	}
	status := TickStatus{RemainingSec: remaining, Expired: expired}
	if expired {
		result, err := e.Submit(ctx, quizID, true)
		if err != nil {
			return status, err
		}
		status.Result = &result
	}
	return status, nil
}

// Pause stops the countdown without resetting it, e.g. when the learner's
// surface loses focus.
func (e *Engine) Pause(ctx context.Context, quizID string) (domain.QuizSession, error) {
	return e.sessions.SetRunning(ctx, quizID, false)
}

// Run restarts a paused countdown.
func (e *Engine) Run(ctx context.Context, quizID string) (domain.QuizSession, error) {
	return e.sessions.SetRunning(ctx, quizID, true)
}

// Submit grades the attempt and runs the bookkeeping saga. auto marks a
// submission forced by timer expiry.
func (e *Engine) Submit(ctx context.Context, quizID string, auto bool) (domain.QuizResult, error) {
	quiz, err := e.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizResult{}, err
	}

	answers := e.answers.Load(ctx, quizID)
	result := grading.Score(quiz, answers)
	result.Auto = auto
	result.CompletedAt = e.now()

	if err := store.SetJSON(ctx, e.kv, store.ResultKey(quizID), result); err != nil {
		return domain.QuizResult{}, err
	}

	attempt := domain.QuizAttempt{
		ID:         e.newID(),
		QuizID:     quizID,
		CreatedAt:  result.CompletedAt,
		TotalScore: result.TotalScore,
		MaxScore:   result.MaxScore,
		Percentage: result.Percentage,
		Passed:     result.Passed,
		Answers:    answers,
	}
	if s, ok := e.sessions.Load(ctx, quizID); ok {
		attempt.DurationSec = int(result.CompletedAt.Sub(s.StartedAt) / time.Second)
	}
	if err := e.history.Record(ctx, attempt); err != nil {
		return result, err
	}

	if result.Passed {
		if err := e.ledger.MarkQuizPassed(ctx, quizID, quiz.ChapterID); err != nil {
			return result, err
		}
	}

	if err := e.sessions.Clear(ctx, quizID); err != nil {
		return result, err
	}
	return result, e.answers.Clear(ctx, quizID)
}

// Result returns the last submitted result for a quiz.
func (e *Engine) Result(ctx context.Context, quizID string) (domain.QuizResult, error) {
	var result domain.QuizResult
	if !store.GetJSON(ctx, e.kv, store.ResultKey(quizID), &result) || result.QuizID != quizID {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	return result, nil
}

// Reset is the hard retake path: it synchronously clears answers, the stale
// result, and the session so the next Resume starts a fresh attempt with a
// newly rolled order.
func (e *Engine) Reset(ctx context.Context, quizID string) error {
	if err := e.answers.Clear(ctx, quizID); err != nil {
		return err
	}
	if err := e.kv.Delete(ctx, store.ResultKey(quizID)); err != nil {
		return err
	}
	return e.sessions.Clear(ctx, quizID)
}
