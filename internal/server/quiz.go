package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Rudranshhhhh/Cybercoach/internal/model"
)

// Service-level errors mapped to contract error bodies by the handler.
var (
	ErrSessionNotFound  = errors.New("Session not found")
	ErrQuizCompleted    = errors.New("Quiz is already completed")
	ErrQuestionNotFound = errors.New("Question not found")
	ErrAlreadyAnswered  = errors.New("Question already answered")
	ErrInvalidAnswer    = errors.New("answer must be 'Phishing' or 'Safe'")
)

// Generator produces the next scenario for a session. The exclude set
// holds bank indices the session has already seen.
type Generator interface {
	GenerateQuestion(ctx context.Context, difficulty string, exclude map[int]bool) (*GeneratedQuestion, error)
}

// QuizService owns the quiz flow: question generation, answer
// evaluation, difficulty escalation and bias tracking.
type QuizService struct {
	store    *SessionStore
	primary  Generator // LLM-backed, may be nil
	fallback Generator
	log      zerolog.Logger
}

// NewQuizService creates a QuizService. primary may be nil, in which case
// every question comes from the built-in bank.
func NewQuizService(store *SessionStore, primary Generator, fallback Generator, log zerolog.Logger) *QuizService {
	return &QuizService{
		store:    store,
		primary:  primary,
		fallback: fallback,
		log:      log.With().Str("component", "quiz_service").Logger(),
	}
}

// StartQuiz creates a new session.
func (s *QuizService) StartQuiz(numQuestions int) *QuizSession {
	sess := s.store.Create(numQuestions)
	s.log.Info().Str("session_id", sess.ID).Int("num_questions", numQuestions).Msg("quiz started")
	return sess
}

// GetSession resolves a session token.
func (s *QuizService) GetSession(id string) (*QuizSession, error) {
	sess := s.store.Get(id)
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// NextQuestion returns the current unanswered question, generating it on
// first request. Re-fetching before answering returns the same question.
func (s *QuizService) NextQuestion(ctx context.Context, sess *QuizSession) (*model.QuestionPage, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Completed {
		return nil, ErrQuizCompleted
	}

	if sess.CurrentIndex >= len(sess.Questions) {
		gq, err := s.generate(ctx, sess)
		if err != nil {
			return nil, fmt.Errorf("generate question: %w", err)
		}
		gq.Question.ID = sess.CurrentIndex + 1
		sess.Questions = append(sess.Questions, *gq)
	}

	q := sess.Questions[sess.CurrentIndex].Question
	// The vector names the attack (or LEGITIMATE) and would give the
	// answer away; it is revealed in the feedback instead.
	q.ThreatVector = ""
	return &model.QuestionPage{
		Question:        q,
		CurrentQuestion: sess.CurrentIndex + 1,
		TotalQuestions:  sess.NumQuestions,
		DifficultyLevel: sess.DifficultyLevel,
	}, nil
}

// generate tries the primary (LLM) generator and falls back to the bank,
// mirroring the service's offline degradation. Caller holds sess.mu.
func (s *QuizService) generate(ctx context.Context, sess *QuizSession) (*GeneratedQuestion, error) {
	exclude := make(map[int]bool, len(sess.Questions))
	for i := range sess.Questions {
		if idx := sess.Questions[i].bankIndex; idx >= 0 {
			exclude[idx] = true
		}
	}

	if s.primary != nil {
		gq, err := s.primary.GenerateQuestion(ctx, sess.DifficultyLevel, exclude)
		if err == nil {
			return gq, nil
		}
		s.log.Warn().Err(err).Msg("LLM generation failed, using scenario bank")
	}
	return s.fallback.GenerateQuestion(ctx, sess.DifficultyLevel, exclude)
}

// EvaluateAnswer grades one attempt. A second attempt for the same
// question is rejected, the difficulty ladder is adjusted, bias exposure
// and failure are recorded, and the session is marked completed when the
// last question has been answered.
func (s *QuizService) EvaluateAnswer(sess *QuizSession, questionID int, rawAnswer, reasoning string) (*model.Feedback, error) {
	answer, err := normalizeAnswer(rawAnswer)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	var gq *GeneratedQuestion
	for i := range sess.Questions {
		if sess.Questions[i].Question.ID == questionID {
			gq = &sess.Questions[i]
			break
		}
	}
	if gq == nil {
		return nil, ErrQuestionNotFound
	}
	for _, a := range sess.Answers {
		if a.QuestionID == questionID {
			return nil, ErrAlreadyAnswered
		}
	}

	correct := answer == gq.CorrectAnswer

	if gq.Trigger != "" {
		sess.BiasExposures[gq.Trigger]++
		if !correct {
			sess.BiasCounts[gq.Trigger]++
		}
	}

	// Adversarial evolver: two consecutive correct answers escalate the
	// difficulty one rung.
	if correct {
		sess.ConsecutiveCorrect++
		if sess.ConsecutiveCorrect >= 2 {
			sess.DifficultyLevel = nextDifficulty(sess.DifficultyLevel)
			sess.ConsecutiveCorrect = 0
		}
	} else {
		sess.ConsecutiveCorrect = 0
	}

	sess.Answers = append(sess.Answers, RecordedAnswer{
		QuestionID: questionID,
		Answer:     answer,
		Reasoning:  reasoning,
		Correct:    correct,
		Trigger:    gq.Trigger,
	})
	sess.CurrentIndex++
	if sess.CurrentIndex >= sess.NumQuestions {
		sess.Completed = true
	}

	explanation := gq.Explanation
	if !correct {
		explanation = fmt.Sprintf("The correct answer was %s. %s", gq.CorrectAnswer, gq.Explanation)
	}

	return &model.Feedback{
		Correct:         correct,
		Explanation:     explanation,
		LearningTip:     gq.LearningTip,
		ThreatVector:    gq.Question.ThreatVector,
		ComplexityScore: gq.Complexity,
		WhyItsHard:      gq.WhyItWorks,
		IsCompleted:     sess.Completed,
	}, nil
}

// Progress reports how far along a session is.
func (s *QuizService) Progress(sess *QuizSession) model.Progress {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	correct := 0
	for _, a := range sess.Answers {
		if a.Correct {
			correct++
		}
	}
	return model.Progress{
		CurrentQuestion: sess.CurrentIndex + 1,
		TotalQuestions:  sess.NumQuestions,
		Answered:        len(sess.Answers),
		Correct:         correct,
		IsCompleted:     sess.Completed,
	}
}

func normalizeAnswer(raw string) (model.AnswerLabel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "phishing":
		return model.AnswerPhishing, nil
	case "safe":
		return model.AnswerSafe, nil
	default:
		return "", ErrInvalidAnswer
	}
}

func nextDifficulty(current string) string {
	for i, lvl := range model.DifficultyLevels {
		if lvl == current && i < len(model.DifficultyLevels)-1 {
			return model.DifficultyLevels[i+1]
		}
	}
	return current
}
