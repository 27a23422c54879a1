package model

// AnswerLabel is one of the two verdicts a user can give to a scenario.
type AnswerLabel string

const (
	AnswerPhishing AnswerLabel = "Phishing"
	AnswerSafe     AnswerLabel = "Safe"
)

// StartQuizRequest is the POST /api/quiz/start payload.
type StartQuizRequest struct {
	NumQuestions int `json:"num_questions" binding:"omitempty,min=1,max=10"`
}

// StartQuizResponse carries the opaque session token issued by the service.
type StartQuizResponse struct {
	SessionID    string `json:"session_id"`
	NumQuestions int    `json:"num_questions,omitempty"`
	Message      string `json:"message,omitempty"`
}

// SubmitAnswerRequest is the POST /api/quiz/answer payload. Reasoning is
// part of the contract but currently always empty on the client side.
type SubmitAnswerRequest struct {
	QuestionID int    `json:"question_id" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
	Reasoning  string `json:"reasoning"`
}

// Feedback is the evaluation returned for a submitted answer. IsCompleted
// piggybacks session completion on the last answer's feedback.
type Feedback struct {
	Correct              bool    `json:"correct"`
	Explanation          string  `json:"explanation"`
	LearningTip          string  `json:"learning_tip"`
	ThreatVector         string  `json:"threat_vector"`
	ComplexityScore      float64 `json:"complexity_score"`
	WhyItsHard           string  `json:"why_its_hard,omitempty"`
	PsychologicalExploit string  `json:"psychological_exploit,omitempty"`
	IsCompleted          bool    `json:"is_completed"`
	Error                string  `json:"error,omitempty"`
}

// WhyItWorks returns whichever rationale field the service populated.
func (f *Feedback) WhyItWorks() string {
	if f.WhyItsHard != "" {
		return f.WhyItsHard
	}
	return f.PsychologicalExploit
}

// Progress is the GET /api/quiz/progress response body.
type Progress struct {
	CurrentQuestion int  `json:"current_question"`
	TotalQuestions  int  `json:"total_questions"`
	Answered        int  `json:"answered"`
	Correct         int  `json:"correct"`
	IsCompleted     bool `json:"is_completed"`
}
