package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"edusat-quiz-engine/internal/domain"
	"edusat-quiz-engine/internal/infra/memory"
)

// Catalog caches full quiz definitions as JSON in Redis and falls back to a
// loader on cache miss. Unlike session state, quiz content is shared across
// learners, so it is cached once per instance fleet:
//
//	SET quiz:catalog:{quizID}          {quiz JSON}
//	SET quiz:catalog:chapter:{chapter} {quizID}
//
// Loaded quizzes are validated before caching; a definition that fails
// validation is never served.
type Catalog struct {
	client *redis.Client
	loader memory.QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalog(client *redis.Client, loader memory.QuizLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := c.cached(ctx, quizID); ok {
			return quiz, nil
		}
		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if err := domain.ValidateQuiz(quiz); err != nil {
			return domain.Quiz{}, err
		}
		c.fill(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *Catalog) GetQuizByChapter(ctx context.Context, chapterID string) (domain.Quiz, error) {
	if quizID, err := c.client.Get(ctx, chapterKey(chapterID)).Result(); err == nil && quizID != "" {
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
		c.fill(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *Catalog) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := c.client.Get(ctx, quizKey(quizID)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil || quiz.ID != quizID {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (c *Catalog) fill(ctx context.Context, quiz domain.Quiz) {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return
	}
	ttl := c.ttlWithJitter()
	pipe := c.client.Pipeline()
	pipe.Set(ctx, quizKey(quiz.ID), raw, ttl)
	if quiz.ChapterID != "" {
		pipe.Set(ctx, chapterKey(quiz.ChapterID), quiz.ID, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func quizKey(quizID string) string { return "quiz:catalog:" + quizID }

func chapterKey(chapterID string) string { return "quiz:catalog:chapter:" + chapterID }

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
