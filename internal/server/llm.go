package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rudranshhhhh/Cybercoach/internal/model"
)

// LLMGenerator produces scenarios through an OpenAI-compatible chat
// completions endpoint. When the key is unset or a call fails, the quiz
// service falls back to the built-in bank.
type LLMGenerator struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	log     zerolog.Logger
}

// NewLLMGenerator returns nil when no API key is configured so callers
// can wire the fallback directly.
func NewLLMGenerator(apiKey, baseURL, modelName string, log zerolog.Logger) *LLMGenerator {
	if apiKey == "" {
		return nil
	}
	return &LLMGenerator{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     log.With().Str("component", "llm_generator").Logger(),
	}
}

const generatePrompt = `Generate one phishing-awareness scenario at %s difficulty as strict JSON:
{"scenario_type": one of "email","popup","slack","oauth_screen","qr_poster","code_review","sms","whatsapp","meta_ai","ai_chat",
 "content": {"from": string, "subject": string, "body": string, "permissions_requested": [string]},
 "correct_answer": "Phishing" or "Safe",
 "threat_vector": short UPPER_SNAKE label, or "LEGITIMATE" when safe,
 "psychological_trigger": one of "AUTHORITY","URGENCY","SCARCITY","CURIOSITY","FEAR",
 "complexity_score": number 1-10,
 "explanation": string, "learning_tip": string, "why_its_hard": string}
Respond with the JSON object only.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type generatedPayload struct {
	ScenarioType         string                `json:"scenario_type"`
	Content              model.ScenarioContent `json:"content"`
	CorrectAnswer        string                `json:"correct_answer"`
	ThreatVector         string                `json:"threat_vector"`
	PsychologicalTrigger string                `json:"psychological_trigger"`
	ComplexityScore      float64               `json:"complexity_score"`
	Explanation          string                `json:"explanation"`
	LearningTip          string                `json:"learning_tip"`
	WhyItsHard           string                `json:"why_its_hard"`
}

// GenerateQuestion implements Generator.
func (g *LLMGenerator) GenerateQuestion(ctx context.Context, difficulty string, _ map[int]bool) (*GeneratedQuestion, error) {
	content, err := g.chatCompletion(ctx, fmt.Sprintf(generatePrompt, difficulty))
	if err != nil {
		return nil, err
	}

	var payload generatedPayload
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &payload); err != nil {
		return nil, fmt.Errorf("parse generated scenario: %w", err)
	}

	answer, err := normalizeAnswer(payload.CorrectAnswer)
	if err != nil {
		return nil, fmt.Errorf("generated scenario has invalid correct_answer %q", payload.CorrectAnswer)
	}

	return &GeneratedQuestion{
		Question: model.Question{
			ScenarioType: model.ScenarioKind(payload.ScenarioType),
			Content:      payload.Content,
			ThreatVector: payload.ThreatVector,
			Difficulty:   difficulty,
		},
		CorrectAnswer: answer,
		Trigger:       payload.PsychologicalTrigger,
		Complexity:    payload.ComplexityScore,
		Explanation:   payload.Explanation,
		LearningTip:   payload.LearningTip,
		WhyItWorks:    payload.WhyItsHard,
		bankIndex:     -1,
	}, nil
}

func (g *LLMGenerator) chatCompletion(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a cybersecurity expert. Always respond with valid JSON when requested."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode, raw)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("llm error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

// stripCodeFences removes markdown fencing some models wrap around JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
