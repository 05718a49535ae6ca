package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"edusat-quiz-engine/internal/app"
	"edusat-quiz-engine/internal/domain"
)

// Handler exposes the quiz engine over a small JSON API plus a websocket
// progress feed. It is a thin adapter: all semantics live in the engine.
type Handler struct {
	engine *app.Engine
}

func NewHandler(engine *app.Engine) *Handler {
	return &Handler{engine: engine}
}

// Register wires the API onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/attempt", h.handleAttempt)
	mux.HandleFunc("/api/answer", h.handleAnswer)
	mux.HandleFunc("/api/navigate", h.handleNavigate)
	mux.HandleFunc("/api/tick", h.handleTick)
	mux.HandleFunc("/api/pause", h.handlePause)
	mux.HandleFunc("/api/run", h.handleRun)
	mux.HandleFunc("/api/submit", h.handleSubmit)
	mux.HandleFunc("/api/reset", h.handleReset)
	mux.HandleFunc("/api/result", h.handleResult)
	mux.HandleFunc("/api/summary", h.handleSummary)
	mux.HandleFunc("/api/progress/lesson", h.handleLessonToggle)
	mux.HandleFunc("/api/progress/chapter", h.handleChapterProgress)
	mux.HandleFunc("/ws/progress", h.ServeProgressWS)
}

type quizRequest struct {
	QuizID string `json:"quizId"`
}

type answerRequest struct {
	QuizID     string             `json:"quizId"`
	QuestionID string             `json:"questionId"`
	Value      domain.AnswerValue `json:"value"`
}

type navigateRequest struct {
	QuizID string `json:"quizId"`
	Index  int    `json:"index"`
}

type lessonRequest struct {
	ChapterID string `json:"chapterId"`
	LessonID  string `json:"lessonId"`
}

func (h *Handler) handleAttempt(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	view, err := h.engine.Resume(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, view)
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.engine.SaveAnswer(r.Context(), req.QuizID, req.QuestionID, req.Value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.engine.Navigate(r.Context(), req.QuizID, req.Index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s)
}

func (h *Handler) handleTick(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if !decode(w, r, &req) {
		return
	}
	status, err := h.engine.Tick(r.Context(), req.QuizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	h.running(w, r, false)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	h.running(w, r, true)
}

func (h *Handler) running(w http.ResponseWriter, r *http.Request, run bool) {
	var req quizRequest
	if !decode(w, r, &req) {
		return
	}
	var (
		s   domain.QuizSession
		err error
	)
	if run {
		s, err = h.engine.Run(r.Context(), req.QuizID)
	} else {
		s, err = h.engine.Pause(r.Context(), req.QuizID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.engine.Submit(r.Context(), req.QuizID, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.engine.Reset(r.Context(), req.QuizID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	result, err := h.engine.Result(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	summary, err := h.engine.Summary(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, summary)
}

func (h *Handler) handleLessonToggle(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if !decode(w, r, &req) {
		return
	}
	done, err := h.engine.Ledger().ToggleLesson(r.Context(), req.ChapterID, req.LessonID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"completed": done})
}

func (h *Handler) handleChapterProgress(w http.ResponseWriter, r *http.Request) {
	chapterID := r.URL.Query().Get("chapterId")
	if chapterID == "" {
		http.Error(w, "missing chapterId", http.StatusBadRequest)
		return
	}
	var lessonIDs []string
	if raw := r.URL.Query().Get("lessonIds"); raw != "" {
		lessonIDs = strings.Split(raw, ",")
	}
	ledger := h.engine.Ledger()
	writeJSON(w, map[string]any{
		"status":     ledger.ChapterStatus(r.Context(), chapterID),
		"completion": ledger.ChapterCompletion(r.Context(), chapterID, lessonIDs),
	})
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrResultNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &verr):
		// Content bug, not a user error; surface loudly.
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
