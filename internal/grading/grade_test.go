package grading

import (
	"testing"

	"edusat-quiz-engine/internal/domain"
)

func TestGradeSingleChoice(t *testing.T) {
	q := domain.Question{
		ID:            "q1",
		Type:          domain.SingleChoice,
		Options:       []string{"A", "B", "C"},
		CorrectAnswer: domain.TextAnswer("B"),
		Points:        2,
	}

	out := Grade(q, domain.TextAnswer("B"))
	if !out.IsCorrect || out.Score != 2 {
		t.Fatalf("expected correct with 2 points, got %+v", out)
	}

	out = Grade(q, domain.TextAnswer("  b "))
	if !out.IsCorrect {
		t.Fatalf("expected case/whitespace-normalized match, got %+v", out)
	}

	out = Grade(q, domain.TextAnswer("A"))
	if out.IsCorrect || out.Score != 0 {
		t.Fatalf("expected incorrect with 0 points, got %+v", out)
	}
}

func TestGradeTrueFalse(t *testing.T) {
	q := domain.Question{
		ID:            "q1",
		Type:          domain.TrueFalse,
		Options:       []string{"true", "false"},
		CorrectAnswer: domain.TextAnswer("false"),
	}
	if out := Grade(q, domain.TextAnswer("False")); !out.IsCorrect || out.Score != 1 {
		t.Fatalf("expected correct with default 1 point, got %+v", out)
	}
}

func TestGradeMultipleChoiceOrderIndependent(t *testing.T) {
	q := domain.Question{
		ID:            "q1",
		Type:          domain.MultipleChoice,
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: domain.ChoicesAnswer("B", "D"),
	}

	if out := Grade(q, domain.ChoicesAnswer("D", "B")); !out.IsCorrect {
		t.Fatalf("expected permuted selection to match, got %+v", out)
	}
	if out := Grade(q, domain.ChoicesAnswer("d", "B", "D")); !out.IsCorrect {
		t.Fatalf("expected duplicate entries to be deduplicated, got %+v", out)
	}
	if out := Grade(q, domain.ChoicesAnswer("B")); out.IsCorrect {
		t.Fatalf("expected partial selection to fail, got %+v", out)
	}
	if out := Grade(q, domain.ChoicesAnswer("B", "D", "A")); out.IsCorrect {
		t.Fatalf("expected superset selection to fail, got %+v", out)
	}
}

func TestGradeNumericTolerance(t *testing.T) {
	q := domain.Question{
		ID:            "q1",
		Type:          domain.Numeric,
		CorrectAnswer: domain.NumberAnswer(5),
	}

	cases := []struct {
		submitted float64
		correct   bool
	}{
		{5, true},
		{5.005, true},
		{5.01, true}, // tolerance bound is inclusive
		{4.99, true},
		{5.02, false},
		{4.98, false},
	}
	for _, tc := range cases {
		out := Grade(q, domain.NumberAnswer(tc.submitted))
		if out.IsCorrect != tc.correct {
			t.Fatalf("submitted %v: expected correct=%v, got %+v", tc.submitted, tc.correct, out)
		}
	}
}

func TestGradeNumericFromText(t *testing.T) {
	q := domain.Question{
		ID:            "q1",
		Type:          domain.Numeric,
		CorrectAnswer: domain.NumberAnswer(0.75),
	}
	if out := Grade(q, domain.TextAnswer(" 0.75 ")); !out.IsCorrect {
		t.Fatalf("expected decimal string to parse, got %+v", out)
	}
	if out := Grade(q, domain.TextAnswer("three quarters")); out.IsCorrect {
		t.Fatalf("expected non-numeric text to be incorrect, got %+v", out)
	}
}

func TestGradeText(t *testing.T) {
	q := domain.Question{
		ID:            "q1",
		Type:          domain.Text,
		CorrectAnswer: domain.TextAnswer("Pythagorean theorem"),
	}
	if out := Grade(q, domain.TextAnswer("  pythagorean   THEOREM ")); !out.IsCorrect {
		t.Fatalf("expected case-fold and whitespace-collapse match, got %+v", out)
	}
	if out := Grade(q, domain.TextAnswer("pythagoras theorem")); out.IsCorrect {
		t.Fatalf("expected no fuzzy matching, got %+v", out)
	}
}

func TestGradeUnanswered(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Type: domain.SingleChoice, Options: []string{"A"}, CorrectAnswer: domain.TextAnswer("A")},
		{ID: "q2", Type: domain.MultipleChoice, Options: []string{"A"}, CorrectAnswer: domain.ChoicesAnswer("A")},
		{ID: "q3", Type: domain.Numeric, CorrectAnswer: domain.NumberAnswer(1)},
		{ID: "q4", Type: domain.Text, CorrectAnswer: domain.TextAnswer("x")},
	}
	for _, q := range questions {
		if out := Grade(q, domain.AnswerValue{}); out.IsCorrect || out.Score != 0 {
			t.Fatalf("question %s: expected unanswered to score 0, got %+v", q.ID, out)
		}
	}
}
