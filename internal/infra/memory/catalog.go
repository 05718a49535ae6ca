package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"edusat-quiz-engine/internal/domain"
)

// QuizLoader fetches quiz definitions from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadQuizByChapter(ctx context.Context, chapterID string) (domain.Quiz, error)
}

// Catalog caches quiz definitions with TTL to avoid repeated backing-store
// hits. Loaded quizzes are validated before they are cached, so authoring
// defects surface at content-load time rather than mid-grading.
type Catalog struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cache     map[string]cachedQuiz
	byChapter map[string]string // chapterID -> quizID
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewCatalog(loader QuizLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		loader:    loader,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:     make(map[string]cachedQuiz),
		byChapter: make(map[string]string),
	}
}

func (c *Catalog) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quiz, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.quiz, nil
		}
		c.mu.RUnlock()

		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if err := domain.ValidateQuiz(quiz); err != nil {
			return domain.Quiz{}, err
		}

		c.store(quiz, now)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *Catalog) GetQuizByChapter(ctx context.Context, chapterID string) (domain.Quiz, error) {
	c.mu.RLock()
	quizID, ok := c.byChapter[chapterID]
	c.mu.RUnlock()
	if ok {
		return c.GetQuiz(ctx, quizID)
	}

	result, err, _ := c.sf.Do("chapter:"+chapterID, func() (interface{}, error) {
		quiz, err := c.loader.LoadQuizByChapter(ctx, chapterID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if err := domain.ValidateQuiz(quiz); err != nil {
			return domain.Quiz{}, err
		}
		c.store(quiz, c.clock())
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *Catalog) store(quiz domain.Quiz, now time.Time) {
	c.mu.Lock()
	c.cache[quiz.ID] = cachedQuiz{quiz: quiz, expiresAt: now.Add(c.ttlWithJitter())}
	c.byChapter[quiz.ChapterID] = quiz.ID
	c.mu.Unlock()
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for
// tests/demos).
type StaticQuizLoader struct {
	quizzes   map[string]domain.Quiz
	byChapter map[string]string
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	byChapter := make(map[string]string, len(quizzes))
	for id, quiz := range quizzes {
		if quiz.ChapterID != "" {
			byChapter[quiz.ChapterID] = id
		}
	}
	return &StaticQuizLoader{quizzes: quizzes, byChapter: byChapter}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *StaticQuizLoader) LoadQuizByChapter(ctx context.Context, chapterID string) (domain.Quiz, error) {
	if quizID, ok := l.byChapter[chapterID]; ok {
		return l.LoadQuiz(ctx, quizID)
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}
