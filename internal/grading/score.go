package grading

import "edusat-quiz-engine/internal/domain"

// Score grades every question in the quiz against the answer map and builds
// the result. Timestamps and the auto-submit flag are stamped by the caller;
// everything computed here is deterministic, so a persisted answer map can be
// safely re-graded without re-prompting the learner.
func Score(quiz domain.Quiz, answers domain.AnswerMap) domain.QuizResult {
	passPercent := quiz.PassThreshold()

	totalScore := 0
	maxScore := 0
	details := make([]domain.ResultDetail, 0, len(quiz.Questions))

	var weak []string
	weakSeen := make(map[string]struct{})

	for _, q := range quiz.Questions {
		chosen := answers[q.ID]
		outcome := Grade(q, chosen)

		maxScore += q.Weight()
		totalScore += outcome.Score

		details = append(details, domain.ResultDetail{
			QuestionID: q.ID,
			IsCorrect:  outcome.IsCorrect,
			Score:      outcome.Score,
			Chosen:     chosen,
			Correct:    q.CorrectAnswer,
			LessonIDs:  q.LessonIDs,
		})

		if !outcome.IsCorrect {
			for _, id := range q.LessonIDs {
				if _, dup := weakSeen[id]; dup || id == "" {
					continue
				}
				weakSeen[id] = struct{}{}
				weak = append(weak, id)
			}
		}
	}

	percentage := 0.0
	if maxScore > 0 {
		percentage = float64(totalScore) / float64(maxScore) * 100
	}

	return domain.QuizResult{
		QuizID:        quiz.ID,
		ChapterID:     quiz.ChapterID,
		TotalScore:    totalScore,
		MaxScore:      maxScore,
		Percentage:    percentage,
		Passed:        percentage >= passPercent,
		PassPercent:   passPercent,
		Details:       details,
		WeakLessonIDs: weak,
	}
}
