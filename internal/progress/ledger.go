// Package progress tracks which lessons, quizzes, and chapters a learner has
// completed, independent of any one quiz attempt. Every mutation is followed
// by a change notification so presentation surfaces can re-render.
package progress

import (
	"context"
	"sync"

	"edusat-quiz-engine/internal/domain"
	"edusat-quiz-engine/internal/store"
)

// Event is a fire-and-forget change notification. There is no delivery
// guarantee: only currently subscribed listeners see it, and slow listeners
// have stale events dropped in favor of the newest.
type Event struct {
	Kind      string `json:"kind"` // "lesson", "quiz", or "chapter"
	ChapterID string `json:"chapterId,omitempty"`
	LessonID  string `json:"lessonId,omitempty"`
	QuizID    string `json:"quizId,omitempty"`
}

// ledgerState is the persisted shape: one document holding all three maps.
// Lesson keys are "chapterID::lessonID".
type ledgerState struct {
	Lessons  map[string]bool                 `json:"lessons,omitempty"`
	Quizzes  map[string]quizEntry            `json:"quizzes,omitempty"`
	Chapters map[string]domain.ChapterStatus `json:"chapters,omitempty"`
}

type quizEntry struct {
	Completed bool   `json:"completed"`
	ChapterID string `json:"chapterId,omitempty"`
}

// Ledger is the progress record over a store.KV, with an explicit observer
// interface in place of an ambient broadcast channel.
type Ledger struct {
	kv store.KV

	mu          sync.Mutex
	subscribers map[chan Event]struct{}
}

func NewLedger(kv store.KV) *Ledger {
	return &Ledger{
		kv:          kv,
		subscribers: make(map[chan Event]struct{}),
	}
}

func lessonKey(chapterID, lessonID string) string {
	return chapterID + "::" + lessonID
}

func (l *Ledger) read(ctx context.Context) ledgerState {
	var s ledgerState
	store.GetJSON(ctx, l.kv, store.ProgressKey(), &s)
	if s.Lessons == nil {
		s.Lessons = make(map[string]bool)
	}
	if s.Quizzes == nil {
		s.Quizzes = make(map[string]quizEntry)
	}
	if s.Chapters == nil {
		s.Chapters = make(map[string]domain.ChapterStatus)
	}
	return s
}

func (l *Ledger) write(ctx context.Context, s ledgerState) error {
	return store.SetJSON(ctx, l.kv, store.ProgressKey(), s)
}

// ToggleLesson flips a lesson's completion and returns the new state. The
// first completed lesson moves an untouched chapter to in_progress.
func (l *Ledger) ToggleLesson(ctx context.Context, chapterID, lessonID string) (bool, error) {
	l.mu.Lock()
	s := l.read(ctx)
	key := lessonKey(chapterID, lessonID)
	next := !s.Lessons[key]
	s.Lessons[key] = next
	if next && chapterStatus(s, chapterID) == domain.ChapterAvailable {
		s.Chapters[chapterID] = domain.ChapterInProgress
	}
	err := l.write(ctx, s)
	l.mu.Unlock()

	if err != nil {
		return next, err
	}
	l.notify(Event{Kind: "lesson", ChapterID: chapterID, LessonID: lessonID})
	return next, nil
}

// IsLessonCompleted reports whether a lesson is marked done.
func (l *Ledger) IsLessonCompleted(ctx context.Context, chapterID, lessonID string) bool {
	s := l.read(ctx)
	return s.Lessons[lessonKey(chapterID, lessonID)]
}

// MarkQuizPassed records a passing quiz and completes its owning chapter; a
// passed quiz is sufficient regardless of individual lesson completion.
func (l *Ledger) MarkQuizPassed(ctx context.Context, quizID, chapterID string) error {
	l.mu.Lock()
	s := l.read(ctx)
	s.Quizzes[quizID] = quizEntry{Completed: true, ChapterID: chapterID}
	if chapterID != "" {
		s.Chapters[chapterID] = domain.ChapterCompleted
	}
	err := l.write(ctx, s)
	l.mu.Unlock()

	if err != nil {
		return err
	}
	l.notify(Event{Kind: "quiz", QuizID: quizID, ChapterID: chapterID})
	return nil
}

// IsQuizCompleted reports whether the quiz has ever been passed.
func (l *Ledger) IsQuizCompleted(ctx context.Context, quizID string) bool {
	s := l.read(ctx)
	return s.Quizzes[quizID].Completed
}

// ChapterStatus returns the chapter's progression state, defaulting to
// available.
func (l *Ledger) ChapterStatus(ctx context.Context, chapterID string) domain.ChapterStatus {
	return chapterStatus(l.read(ctx), chapterID)
}

func chapterStatus(s ledgerState, chapterID string) domain.ChapterStatus {
	if status, ok := s.Chapters[chapterID]; ok {
		return status
	}
	return domain.ChapterAvailable
}

// MarkChapterCompleted sets the chapter's status directly.
func (l *Ledger) MarkChapterCompleted(ctx context.Context, chapterID string) error {
	l.mu.Lock()
	s := l.read(ctx)
	s.Chapters[chapterID] = domain.ChapterCompleted
	err := l.write(ctx, s)
	l.mu.Unlock()

	if err != nil {
		return err
	}
	l.notify(Event{Kind: "chapter", ChapterID: chapterID})
	return nil
}

// ChapterCompletion derives lesson-completion totals for a chapter. A chapter
// with zero lessons reports 0% and is not Done; only a quiz pass (or explicit
// mark) completes such a chapter.
func (l *Ledger) ChapterCompletion(ctx context.Context, chapterID string, lessonIDs []string) domain.ChapterCompletion {
	s := l.read(ctx)

	completed := 0
	for _, id := range lessonIDs {
		if s.Lessons[lessonKey(chapterID, id)] {
			completed++
		}
	}
	total := len(lessonIDs)
	percent := 0.0
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}
	return domain.ChapterCompletion{
		ChapterID: chapterID,
		Total:     total,
		Completed: completed,
		Percent:   percent,
		Done:      total > 0 && completed == total,
	}
}

// Subscribe returns a channel receiving change events. The caller must invoke
// the returned cancel function to avoid leaks.
func (l *Ledger) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	l.mu.Lock()
	l.subscribers[ch] = struct{}{}
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		if _, ok := l.subscribers[ch]; ok {
			delete(l.subscribers, ch)
			close(ch)
		}
		l.mu.Unlock()
	}
	return ch, cancel
}

func (l *Ledger) notify(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop its oldest pending event so the newest lands.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
