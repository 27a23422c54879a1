package model

// ScenarioKind enumerates the presentational category of a simulated
// message. Wire values match the frontend's scenario_type switch.
type ScenarioKind string

const (
	ScenarioEmail       ScenarioKind = "email"
	ScenarioPopup       ScenarioKind = "popup"
	ScenarioSlack       ScenarioKind = "slack"
	ScenarioOAuthScreen ScenarioKind = "oauth_screen"
	ScenarioQRPoster    ScenarioKind = "qr_poster"
	ScenarioCodeReview  ScenarioKind = "code_review"
	ScenarioSMS         ScenarioKind = "sms"
	ScenarioWhatsApp    ScenarioKind = "whatsapp"
	ScenarioMetaAI      ScenarioKind = "meta_ai"
	ScenarioAIChat      ScenarioKind = "ai_chat"
	// ScenarioUnspecified renders with the plain email layout.
	ScenarioUnspecified ScenarioKind = ""
)

// ThreatVectorBenign is the sentinel threat vector for legitimate scenarios.
const ThreatVectorBenign = "LEGITIMATE"

// DifficultyLevels is the escalation ladder. Sessions start at ADVANCED.
var DifficultyLevels = []string{"ADVANCED", "EXPERT", "ELITE"}

// PsychologicalTriggers are the cognitive-bias categories tracked for the
// bias heatmap.
var PsychologicalTriggers = []string{"AUTHORITY", "URGENCY", "SCARCITY", "CURIOSITY", "FEAR"}

// ScenarioContent is the free-form payload of a simulated message.
type ScenarioContent struct {
	From                 string   `json:"from,omitempty"`
	Subject              string   `json:"subject,omitempty"`
	Body                 string   `json:"body,omitempty"`
	PermissionsRequested []string `json:"permissions_requested,omitempty"`
}

// Question is a single phishing-or-safe scenario as served to the client.
// Immutable once fetched; replaced wholesale by the next fetch.
type Question struct {
	ID           int             `json:"id"`
	ScenarioType ScenarioKind    `json:"scenario_type"`
	Content      ScenarioContent `json:"content"`
	ThreatVector string          `json:"threat_vector,omitempty"`
	Difficulty   string          `json:"difficulty,omitempty"`
}

// QuestionPage is the GET /api/quiz/question response body. The error
// field doubles as a protocol channel: a message containing "completed"
// signals the normal end of the session, anything else is a real failure.
type QuestionPage struct {
	Question        Question `json:"question"`
	CurrentQuestion int      `json:"current_question"`
	TotalQuestions  int      `json:"total_questions"`
	DifficultyLevel string   `json:"difficulty_level"`
	Error           string   `json:"error,omitempty"`
	Message         string   `json:"message,omitempty"`
}
