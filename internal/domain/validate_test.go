package domain

import (
	"errors"
	"testing"
)

func validQuiz() Quiz {
	return Quiz{
		ID:        "quiz-1",
		ChapterID: "c1",
		Questions: []Question{
			{ID: "q1", Type: SingleChoice, Options: []string{"A", "B"}, CorrectAnswer: TextAnswer("A")},
			{ID: "q2", Type: MultipleChoice, Options: []string{"A", "B", "C"}, CorrectAnswer: ChoicesAnswer("A", "C")},
			{ID: "q3", Type: TrueFalse, Options: []string{"true", "false"}, CorrectAnswer: TextAnswer("true")},
			{ID: "q4", Type: Numeric, CorrectAnswer: NumberAnswer(3.14)},
			{ID: "q5", Type: Text, CorrectAnswer: TextAnswer("answer")},
		},
	}
}

func TestValidateQuizAccepts(t *testing.T) {
	if err := ValidateQuiz(validQuiz()); err != nil {
		t.Fatalf("expected valid quiz, got %v", err)
	}
}

func TestValidateQuizAllowsImplicitTrueFalseOptions(t *testing.T) {
	quiz := validQuiz()
	quiz.Questions[2].Options = nil
	if err := ValidateQuiz(quiz); err != nil {
		t.Fatalf("true_false options are implicit, got %v", err)
	}
}

func TestValidateQuizRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Quiz)
	}{
		{"missing chapter", func(q *Quiz) { q.ChapterID = "" }},
		{"duplicate question ids", func(q *Quiz) { q.Questions[1].ID = "q1" }},
		{"correct answer not among options", func(q *Quiz) { q.Questions[0].CorrectAnswer = TextAnswer("Z") }},
		{"duplicate options", func(q *Quiz) { q.Questions[0].Options = []string{"A", "A"} }},
		{"negative points", func(q *Quiz) { q.Questions[0].Points = -1 }},
		{"pass percent out of range", func(q *Quiz) { q.PassPercent = 120 }},
		{"numeric without expected value", func(q *Quiz) { q.Questions[3].CorrectAnswer = AnswerValue{} }},
		{"true_false with odd options", func(q *Quiz) { q.Questions[2].Options = []string{"yes", "no"} }},
		{"true_false with non-boolean answer", func(q *Quiz) { q.Questions[2].CorrectAnswer = TextAnswer("maybe") }},
		{"unknown type", func(q *Quiz) { q.Questions[4].Type = "essay" }},
	}

	for _, tc := range cases {
		quiz := validQuiz()
		tc.mutate(&quiz)
		err := ValidateQuiz(quiz)
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected *ValidationError, got %T", tc.name, err)
		}
	}
}

func TestValidateQuizAllowsZeroDefaults(t *testing.T) {
	quiz := validQuiz()
	quiz.PassPercent = 0
	quiz.Questions[0].Points = 0
	if err := ValidateQuiz(quiz); err != nil {
		t.Fatalf("zero passPercent/points mean defaults, got %v", err)
	}
	if quiz.PassThreshold() != DefaultPassPercent {
		t.Fatalf("expected default pass threshold, got %v", quiz.PassThreshold())
	}
	if quiz.Questions[0].Weight() != 1 {
		t.Fatalf("expected default weight 1, got %d", quiz.Questions[0].Weight())
	}
}
