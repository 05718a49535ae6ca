package app

import (
	"context"

	"edusat-quiz-engine/internal/domain"
)

// Hub status labels for a quiz.
const (
	StatusInProgress   = "in_progress"
	StatusNotAttempted = "not_attempted"
	StatusPassed       = "passed"
	StatusNeedsWork    = "needs_work"
)

// Summary is the hub view of one quiz: best/last attempt, whether a live
// session or submitted result exists, and a derived status label.
type Summary struct {
	QuizID      string              `json:"quizId"`
	ChapterID   string              `json:"chapterId"`
	Title       string              `json:"title"`
	PassPercent float64             `json:"passPercent"`
	Status      string              `json:"status"`
	Best        *domain.QuizAttempt `json:"best,omitempty"`
	Last        *domain.QuizAttempt `json:"last,omitempty"`
	HasSession  bool                `json:"hasSession"`
	HasResult   bool                `json:"hasResult"`
}

// Summary builds the hub summary for a quiz.
func (e *Engine) Summary(ctx context.Context, quizID string) (Summary, error) {
	quiz, err := e.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{
		QuizID:      quiz.ID,
		ChapterID:   quiz.ChapterID,
		Title:       quiz.Title,
		PassPercent: quiz.PassThreshold(),
	}

	if best, ok := e.history.Best(ctx, quizID); ok {
		out.Best = &best
	}
	if last, ok := e.history.Last(ctx, quizID); ok {
		out.Last = &last
	}
	_, out.HasSession = e.sessions.Load(ctx, quizID)
	if _, err := e.Result(ctx, quizID); err == nil {
		out.HasResult = true
	}

	out.Status = summaryStatus(out)
	return out, nil
}

func summaryStatus(s Summary) string {
	switch {
	case s.HasSession && !s.HasResult:
		return StatusInProgress
	case s.Best == nil:
		return StatusNotAttempted
	case s.Best.Percentage >= s.PassPercent:
		return StatusPassed
	default:
		return StatusNeedsWork
	}
}
