package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Rudranshhhhh/Cybercoach/internal/api"
	"github.com/Rudranshhhhh/Cybercoach/internal/model"
	"github.com/Rudranshhhhh/Cybercoach/internal/validator"
)

// Handler exposes the quiz HTTP contract. Error bodies are flat
// {"error": "..."} objects; clients key off the error text, so the
// completed-session message must keep containing "completed".
type Handler struct {
	quiz    *QuizService
	reports *ReportService
	llmOn   bool
	maxQ    int
	defQ    int
	log     zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(quiz *QuizService, reports *ReportService, llmConfigured bool, defaultQuestions, maxQuestions int, log zerolog.Logger) *Handler {
	return &Handler{
		quiz:    quiz,
		reports: reports,
		llmOn:   llmConfigured,
		maxQ:    maxQuestions,
		defQ:    defaultQuestions,
		log:     log.With().Str("component", "http_handler").Logger(),
	}
}

// Health godoc
// GET /
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "Cybercoach Backend",
		"llm_configured": h.llmOn,
	})
}

// StartQuiz godoc
// POST /api/quiz/start
func (h *Handler) StartQuiz(c *gin.Context) {
	var req model.StartQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.JoinFields(fields)})
		return
	}
	if req.NumQuestions == 0 {
		req.NumQuestions = h.defQ
	}
	if req.NumQuestions < 1 || req.NumQuestions > h.maxQ {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Number of questions must be between 1 and " + strconv.Itoa(h.maxQ),
		})
		return
	}

	sess := h.quiz.StartQuiz(req.NumQuestions)
	c.JSON(http.StatusOK, model.StartQuizResponse{
		SessionID:    sess.ID,
		NumQuestions: sess.NumQuestions,
		Message:      "Quiz started! Request your first question.",
	})
}

// GetQuestion godoc
// GET /api/quiz/question
func (h *Handler) GetQuestion(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	page, err := h.quiz.NextQuestion(c.Request.Context(), sess)
	if err != nil {
		if errors.Is(err, ErrQuizCompleted) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   ErrQuizCompleted.Error(),
				"message": "Request your report at /api/quiz/report",
			})
			return
		}
		h.log.Error().Err(err).Str("session_id", sess.ID).Msg("question generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate question"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// SubmitAnswer godoc
// POST /api/quiz/answer
func (h *Handler) SubmitAnswer(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.JoinFields(fields)})
		return
	}

	fb, err := h.quiz.EvaluateAnswer(sess, req.QuestionID, req.Answer, req.Reasoning)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAnswer),
			errors.Is(err, ErrQuestionNotFound),
			errors.Is(err, ErrAlreadyAnswered):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error().Err(err).Str("session_id", sess.ID).Msg("evaluation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate answer"})
		}
		return
	}

	c.JSON(http.StatusOK, fb)
}

// GetReport godoc
// GET /api/quiz/report
func (h *Handler) GetReport(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	report, err := h.reports.BuildReport(sess)
	if err != nil {
		if errors.Is(err, ErrQuizNotCompleted) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    ErrQuizNotCompleted.Error(),
				"progress": h.quiz.Progress(sess),
			})
			return
		}
		h.log.Error().Err(err).Str("session_id", sess.ID).Msg("report generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetProgress godoc
// GET /api/quiz/progress
func (h *Handler) GetProgress(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.quiz.Progress(sess))
}

// session resolves the X-Session-ID header, writing the contract error
// body itself when resolution fails.
func (h *Handler) session(c *gin.Context) (*QuizSession, bool) {
	sid := strings.TrimSpace(c.GetHeader(api.HeaderSessionID))
	if sid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": api.HeaderSessionID + " header is required"})
		return nil, false
	}
	sess, err := h.quiz.GetSession(sid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrSessionNotFound.Error()})
		return nil, false
	}
	return sess, true
}
