package session

import "edusat-quiz-engine/internal/domain"

// OrderQuestions returns the quiz's questions in the order realized for the
// given attempt, with per-question option permutations applied. With no
// captured order (shuffling disabled, or a submitted quiz shown for review)
// the declared order is returned. Questions added to the quiz after the order
// was captured are appended in declared order; captured IDs that no longer
// exist are skipped.
func OrderQuestions(quiz domain.Quiz, s domain.QuizSession) []domain.Question {
	ordered := orderByIDs(quiz.Questions, s.QuestionOrder)
	if len(s.OptionsOrder) == 0 {
		return ordered
	}
	for i := range ordered {
		if perm, ok := s.OptionsOrder[ordered[i].ID]; ok && samePool(ordered[i].Options, perm) {
			ordered[i].Options = perm
		}
	}
	return ordered
}

func orderByIDs(questions []domain.Question, ids []string) []domain.Question {
	out := make([]domain.Question, 0, len(questions))
	if len(ids) == 0 {
		return append(out, questions...)
	}

	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	taken := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := taken[id]; dup {
			continue
		}
		taken[id] = struct{}{}
		out = append(out, q)
	}
	for _, q := range questions {
		if _, ok := taken[q.ID]; !ok {
			out = append(out, q)
		}
	}
	return out
}

// samePool reports whether perm is a permutation of opts, guarding against a
// stale captured order after a content edit.
func samePool(opts, perm []string) bool {
	if len(opts) != len(perm) {
		return false
	}
	counts := make(map[string]int, len(opts))
	for _, o := range opts {
		counts[o]++
	}
	for _, p := range perm {
		counts[p]--
		if counts[p] < 0 {
			return false
		}
	}
	return true
}
