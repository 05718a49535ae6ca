package store

// Key scheme for the engine's persisted state. Each quiz owns four independent
// entries; progress is a single ledger document.

func AnswersKey(quizID string) string { return "quiz:answers:" + quizID }

func SessionKey(quizID string) string { return "quiz:session:" + quizID }

func ResultKey(quizID string) string { return "quiz:result:" + quizID }

func AttemptsKey(quizID string) string { return "quiz:attempts:" + quizID }

func ProgressKey() string { return "progress" }
