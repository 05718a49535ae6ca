package session

import (
	"context"

	"edusat-quiz-engine/internal/domain"
	"edusat-quiz-engine/internal/store"
)

// Answers persists the in-progress answer map for an attempt. It lives in
// this package because its lifecycle mirrors the session's: created at
// attempt start, mutated on every input, cleared with the session. It is
// stored under its own key so timer state and answer content stay independent.
type Answers struct {
	kv store.KV
}

func NewAnswers(kv store.KV) *Answers {
	return &Answers{kv: kv}
}

// Load returns the persisted answer map, or an empty map when absent or
// unreadable.
func (a *Answers) Load(ctx context.Context, quizID string) domain.AnswerMap {
	answers := domain.AnswerMap{}
	store.GetJSON(ctx, a.kv, store.AnswersKey(quizID), &answers)
	if answers == nil {
		answers = domain.AnswerMap{}
	}
	return answers
}

// Save records one answer, persisting the whole map.
func (a *Answers) Save(ctx context.Context, quizID, questionID string, v domain.AnswerValue) (domain.AnswerMap, error) {
	answers := a.Load(ctx, quizID)
	if v.IsEmpty() {
		delete(answers, questionID)
	} else {
		answers[questionID] = v
	}
	return answers, store.SetJSON(ctx, a.kv, store.AnswersKey(quizID), answers)
}

// Clear removes the answer map.
func (a *Answers) Clear(ctx context.Context, quizID string) error {
	return a.kv.Delete(ctx, store.AnswersKey(quizID))
}
