package domain

import "fmt"

// ValidationError describes a content-authoring defect in a quiz definition.
// It is raised at catalog load time, never during grading: a learner must
// always be able to submit, but a broken definition should surface loudly to
// whoever maintains the content.
type ValidationError struct {
	QuizID     string
	QuestionID string
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.QuestionID != "" {
		return fmt.Sprintf("quiz %q question %q: %s", e.QuizID, e.QuestionID, e.Reason)
	}
	return fmt.Sprintf("quiz %q: %s", e.QuizID, e.Reason)
}

func invalid(quizID, questionID, reason string) error {
	return &ValidationError{QuizID: quizID, QuestionID: questionID, Reason: reason}
}

// ValidateQuiz checks a quiz definition for authoring defects: duplicate
// question IDs, choice answers not drawn from the options, duplicate options,
// negative points, or an out-of-range pass threshold. A zero Points or
// PassPercent is allowed and means "use the default".
func ValidateQuiz(q Quiz) error {
	if q.ID == "" {
		return invalid(q.ID, "", "missing id")
	}
	if q.ChapterID == "" {
		return invalid(q.ID, "", "missing chapterId")
	}
	if q.PassPercent < 0 || q.PassPercent > 100 {
		return invalid(q.ID, "", fmt.Sprintf("passPercent %v out of range [0,100]", q.PassPercent))
	}
	if q.TimeLimitSec < 0 {
		return invalid(q.ID, "", "negative timeLimitSec")
	}

	seen := make(map[string]struct{}, len(q.Questions))
	for _, question := range q.Questions {
		if question.ID == "" {
			return invalid(q.ID, "", "question with empty id")
		}
		if _, dup := seen[question.ID]; dup {
			return invalid(q.ID, question.ID, "duplicate question id")
		}
		seen[question.ID] = struct{}{}

		if err := validateQuestion(q.ID, question); err != nil {
			return err
		}
	}
	return nil
}

func validateQuestion(quizID string, q Question) error {
	if q.Points < 0 {
		return invalid(quizID, q.ID, "negative points")
	}

	switch q.Type {
	case TrueFalse:
		// Options are implicit for true_false; a declared list must still be
		// exactly true and false.
		if len(q.Options) != 0 {
			if len(q.Options) != 2 || !hasOption(q.Options, "true") || !hasOption(q.Options, "false") {
				return invalid(quizID, q.ID, "true_false requires exactly the options true and false")
			}
		}
		if q.CorrectAnswer.Text != "true" && q.CorrectAnswer.Text != "false" {
			return invalid(quizID, q.ID, "true_false correctAnswer must be true or false")
		}
	case SingleChoice, MultipleChoice:
		if len(q.Options) == 0 {
			return invalid(quizID, q.ID, "choice question without options")
		}
		opts := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if _, dup := opts[opt]; dup {
				return invalid(quizID, q.ID, fmt.Sprintf("duplicate option %q", opt))
			}
			opts[opt] = struct{}{}
		}
		if q.Type == MultipleChoice {
			if len(q.CorrectAnswer.Choices) == 0 {
				return invalid(quizID, q.ID, "missing correctAnswer")
			}
			for _, c := range q.CorrectAnswer.Choices {
				if _, ok := opts[c]; !ok {
					return invalid(quizID, q.ID, fmt.Sprintf("correctAnswer %q not among options", c))
				}
			}
		} else {
			if q.CorrectAnswer.Text == "" {
				return invalid(quizID, q.ID, "missing correctAnswer")
			}
			if _, ok := opts[q.CorrectAnswer.Text]; !ok {
				return invalid(quizID, q.ID, fmt.Sprintf("correctAnswer %q not among options", q.CorrectAnswer.Text))
			}
		}
	case Numeric:
		if q.CorrectAnswer.Number == nil {
			return invalid(quizID, q.ID, "missing correctAnswer")
		}
	case Text:
		if q.CorrectAnswer.Text == "" {
			return invalid(quizID, q.ID, "missing correctAnswer")
		}
	default:
		return invalid(quizID, q.ID, fmt.Sprintf("unknown question type %q", q.Type))
	}
	return nil
}

func hasOption(opts []string, want string) bool {
	for _, o := range opts {
		if o == want {
			return true
		}
	}
	return false
}
