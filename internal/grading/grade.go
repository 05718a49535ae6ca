// Package grading holds the pure answer-judging logic: per-type correctness
// rules and the quiz scorer. Nothing here touches storage or clocks, so the
// same (quiz, answers) pair always grades to the same result.
package grading

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"edusat-quiz-engine/internal/domain"
)

// NumericTolerance is the absolute tolerance for numeric questions. The bound
// is inclusive: a submission exactly at the tolerance is correct.
const NumericTolerance = 0.01

// Outcome is the grading verdict for a single question.
type Outcome struct {
	IsCorrect bool
	Score     int
}

// Grade judges one submitted value against one question. Unanswered or
// unparsable submissions are incorrect, never an error: bad input must not
// keep a learner from submitting. Scoring is all-or-nothing.
func Grade(q domain.Question, v domain.AnswerValue) Outcome {
	points := q.Weight()

	if v.IsEmpty() {
		return Outcome{}
	}

	switch q.Type {
	case domain.SingleChoice, domain.TrueFalse, domain.Text:
		if normalize(v.Text) == normalize(q.CorrectAnswer.Text) {
			return Outcome{IsCorrect: true, Score: points}
		}
	case domain.MultipleChoice:
		if equalSets(v.Choices, q.CorrectAnswer.Choices) {
			return Outcome{IsCorrect: true, Score: points}
		}
	case domain.Numeric:
		submitted, ok := numericValue(v)
		if !ok || q.CorrectAnswer.Number == nil {
			return Outcome{}
		}
		if math.Abs(submitted-*q.CorrectAnswer.Number) <= NumericTolerance {
			return Outcome{IsCorrect: true, Score: points}
		}
	}
	return Outcome{}
}

// normalize case-folds and collapses runs of whitespace to a single space.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// normalizeSet normalizes, drops empties, de-duplicates, and sorts.
func normalizeSet(vals []string) []string {
	out := make([]string, 0, len(vals))
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func equalSets(a, b []string) bool {
	na, nb := normalizeSet(a), normalizeSet(b)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

// numericValue extracts a finite float from a numeric submission, accepting
// either the Number field or a decimal string in Text.
func numericValue(v domain.AnswerValue) (float64, bool) {
	if v.Number != nil {
		if math.IsNaN(*v.Number) || math.IsInf(*v.Number, 0) {
			return 0, false
		}
		return *v.Number, true
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
