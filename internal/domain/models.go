package domain

import "time"

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	Numeric        QuestionType = "numeric"
	Text           QuestionType = "text"
)

// AnswerValue is a submitted or expected answer. Which field carries the value
// depends on the question type: Text for single_choice/true_false/text,
// Choices for multiple_choice, Number for numeric (a numeric submission may
// also arrive as a decimal string in Text).
type AnswerValue struct {
	Text    string   `json:"text,omitempty"`
	Choices []string `json:"choices,omitempty"`
	Number  *float64 `json:"number,omitempty"`
}

// IsEmpty reports whether no answer was given.
func (v AnswerValue) IsEmpty() bool {
	return v.Text == "" && len(v.Choices) == 0 && v.Number == nil
}

// TextAnswer builds a string-valued answer.
func TextAnswer(s string) AnswerValue { return AnswerValue{Text: s} }

// ChoicesAnswer builds a multi-selection answer.
func ChoicesAnswer(vals ...string) AnswerValue { return AnswerValue{Choices: vals} }

// NumberAnswer builds a numeric answer.
func NumberAnswer(n float64) AnswerValue { return AnswerValue{Number: &n} }

// AnswerMap maps question IDs to submitted values. Missing entries mean
// unanswered.
type AnswerMap map[string]AnswerValue

// Question is one item to answer.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer AnswerValue  `json:"correctAnswer"`
	Points        int          `json:"points"` // defaults to 1 if zero
	Explanation   string       `json:"explanation,omitempty"`
	LessonIDs     []string     `json:"lessonIds,omitempty"`
}

// Weight returns the question's point weight with the default applied.
func (q Question) Weight() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// DefaultPassPercent applies when a quiz does not declare its own threshold.
const DefaultPassPercent = 70.0

// Quiz is an ordered collection of questions plus attempt policy.
type Quiz struct {
	ID               string     `json:"id"`
	ChapterID        string     `json:"chapterId"`
	Title            string     `json:"title"`
	PassPercent      float64    `json:"passPercent"` // defaults to 70 if zero
	TimeLimitSec     int        `json:"timeLimitSec,omitempty"`
	ShuffleQuestions bool       `json:"shuffleQuestions,omitempty"`
	ShuffleOptions   bool       `json:"shuffleOptions,omitempty"`
	Questions        []Question `json:"questions"`
}

// PassThreshold returns the quiz's pass mark with the default applied.
func (q Quiz) PassThreshold() float64 {
	if q.PassPercent <= 0 {
		return DefaultPassPercent
	}
	return q.PassPercent
}

// Timed reports whether a countdown applies to attempts on this quiz.
func (q Quiz) Timed() bool { return q.TimeLimitSec > 0 }

// QuestionByID returns the question with the given ID.
func (q Quiz) QuestionByID(id string) (Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return q.Questions[i], true
		}
	}
	return Question{}, false
}

// QuizSession is the resumable, ephemeral state of one attempt: timer,
// position, and the permutations realized at attempt start. The orders are
// captured once so a reload never re-shuffles mid-attempt.
type QuizSession struct {
	QuizID        string              `json:"quizId"`
	StartedAt     time.Time           `json:"startedAt"`
	TimeLimitSec  int                 `json:"timeLimitSec,omitempty"` // 0 = untimed
	RemainingSec  int                 `json:"remainingSec"`
	Running       bool                `json:"running"`
	CurrentIndex  int                 `json:"currentIndex"`
	QuestionOrder []string            `json:"questionOrder,omitempty"`
	OptionsOrder  map[string][]string `json:"optionsOrder,omitempty"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	PausedAt      time.Time           `json:"pausedAt"` // zero unless paused
}

// ResultDetail is the per-question correction record.
type ResultDetail struct {
	QuestionID string      `json:"questionId"`
	IsCorrect  bool        `json:"isCorrect"`
	Score      int         `json:"score"`
	Chosen     AnswerValue `json:"chosen"`
	Correct    AnswerValue `json:"correct"`
	LessonIDs  []string    `json:"lessonIds,omitempty"`
}

// QuizResult is the outcome of grading one submission.
type QuizResult struct {
	QuizID        string         `json:"quizId"`
	ChapterID     string         `json:"chapterId"`
	TotalScore    int            `json:"totalScore"`
	MaxScore      int            `json:"maxScore"`
	Percentage    float64        `json:"percentage"`
	Passed        bool           `json:"passed"`
	PassPercent   float64        `json:"passPercent"`
	Details       []ResultDetail `json:"details"`
	WeakLessonIDs []string       `json:"weakLessonIds,omitempty"`
	Auto          bool           `json:"auto,omitempty"` // produced by timer expiry
	CompletedAt   time.Time      `json:"completedAt"`
}

// QuizAttempt is an immutable history entry recorded after each submission.
type QuizAttempt struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	CreatedAt   time.Time `json:"createdAt"`
	DurationSec int       `json:"durationSec"`
	TotalScore  int       `json:"totalScore"`
	MaxScore    int       `json:"maxScore"`
	Percentage  float64   `json:"percentage"`
	Passed      bool      `json:"passed"`
	Answers     AnswerMap `json:"answers"`
}

// ChapterStatus is the coarse progression state of a chapter.
type ChapterStatus string

const (
	ChapterAvailable  ChapterStatus = "available"
	ChapterInProgress ChapterStatus = "in_progress"
	ChapterCompleted  ChapterStatus = "completed"
)

// ChapterCompletion summarizes lesson completion within a chapter.
type ChapterCompletion struct {
	ChapterID string  `json:"chapterId"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Percent   float64 `json:"percent"`
	Done      bool    `json:"done"` // all lessons complete (requires at least one lesson)
}
