package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rudranshhhhh/Cybercoach/internal/model"
)

// GeneratedQuestion is a question together with the grading data that
// never leaves the service.
type GeneratedQuestion struct {
	Question      model.Question
	CorrectAnswer model.AnswerLabel
	// Trigger is the psychological trigger the scenario leans on; empty
	// for legitimate scenarios.
	Trigger     string
	Complexity  float64
	Explanation string
	LearningTip string
	WhyItWorks  string

	// bankIndex is set for bank-generated questions so a session never
	// repeats a scenario; -1 for LLM-generated ones.
	bankIndex int
}

// RecordedAnswer is one submitted attempt. Created on submit, never
// mutated, at most one per question.
type RecordedAnswer struct {
	QuestionID int
	Answer     model.AnswerLabel
	Reasoning  string
	Correct    bool
	Trigger    string
}

// QuizSession is the server-side session state. All mutation goes through
// QuizService while holding mu.
type QuizSession struct {
	mu sync.Mutex

	ID           string
	CreatedAt    time.Time
	NumQuestions int
	// CurrentIndex counts acknowledged answers; the question exposed to
	// the client is CurrentIndex+1 (1-based).
	CurrentIndex int
	Questions    []GeneratedQuestion
	Answers      []RecordedAnswer
	Completed    bool

	DifficultyLevel    string
	ConsecutiveCorrect int

	// BiasExposures / BiasCounts track, per psychological trigger, how
	// often the user saw it and how often it fooled them.
	BiasExposures map[string]int
	BiasCounts    map[string]int
}

// SessionStore keeps sessions in memory for the process lifetime. There
// is deliberately no persistence: a session lives and dies with the
// service, matching the client's single-tab session model.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*QuizSession
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*QuizSession)}
}

// Create issues a new session with an opaque uuid token.
func (s *SessionStore) Create(numQuestions int) *QuizSession {
	sess := &QuizSession{
		ID:              uuid.New().String(),
		CreatedAt:       time.Now(),
		NumQuestions:    numQuestions,
		DifficultyLevel: model.DifficultyLevels[0],
		BiasExposures:   make(map[string]int),
		BiasCounts:      make(map[string]int),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session for a token, or nil.
func (s *SessionStore) Get(id string) *QuizSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Count returns the number of live sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
