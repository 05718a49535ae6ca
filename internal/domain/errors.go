package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionNotFound is returned when no resumable attempt exists.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrResultNotFound is returned when no submitted result exists for a quiz.
	ErrResultNotFound = errors.New("quiz result not found")
)
