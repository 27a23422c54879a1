package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Rudranshhhhh/Cybercoach/internal/api"
	"github.com/Rudranshhhhh/Cybercoach/internal/config"
	"github.com/Rudranshhhhh/Cybercoach/internal/model"
	"github.com/Rudranshhhhh/Cybercoach/internal/validator"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	validator.Setup()

	store := NewSessionStore()
	gen := &stubGenerator{answer: model.AnswerPhishing, trigger: "URGENCY"}
	quiz := NewQuizService(store, nil, gen, zerolog.Nop())
	reports := NewReportService(zerolog.Nop())
	h := NewHandler(quiz, reports, false, 5, 10, zerolog.Nop())

	cfg := &config.Config{GinMode: gin.TestMode}
	srv := httptest.NewServer(NewRouter(h, cfg))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, sessionID string, body any) (int, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(api.HeaderSessionID, sessionID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func rawString(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	return s
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	status, body := doJSON(t, http.MethodGet, srv.URL+"/", "", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if got := rawString(t, body["status"]); got != "healthy" {
		t.Fatalf("status field = %q", got)
	}
}

func TestQuizContract(t *testing.T) {
	srv := newTestServer(t)

	// Start.
	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/quiz/start", "", map[string]any{"num_questions": 2})
	if status != http.StatusOK {
		t.Fatalf("start status = %d", status)
	}
	sid := rawString(t, body["session_id"])
	if sid == "" {
		t.Fatalf("missing session_id")
	}

	// Report before completion carries progress.
	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/quiz/report", sid, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("early report status = %d", status)
	}
	if got := rawString(t, body["error"]); got != "Quiz not completed yet" {
		t.Fatalf("early report error = %q", got)
	}
	if _, ok := body["progress"]; !ok {
		t.Fatalf("early report missing progress")
	}

	for i := 1; i <= 2; i++ {
		status, body = doJSON(t, http.MethodGet, srv.URL+"/api/quiz/question", sid, nil)
		if status != http.StatusOK {
			t.Fatalf("question %d status = %d", i, status)
		}
		var q model.Question
		if err := json.Unmarshal(body["question"], &q); err != nil {
			t.Fatalf("decode question: %v", err)
		}
		if q.ID != i {
			t.Fatalf("question id = %d, want %d", q.ID, i)
		}

		status, body = doJSON(t, http.MethodPost, srv.URL+"/api/quiz/answer", sid, map[string]any{
			"question_id": q.ID,
			"answer":      "Phishing",
			"reasoning":   "spoofed domain",
		})
		if status != http.StatusOK {
			t.Fatalf("answer %d status = %d", i, status)
		}
	}

	var completed bool
	if err := json.Unmarshal(body["is_completed"], &completed); err != nil || !completed {
		t.Fatalf("final answer is_completed = %s (err=%v)", body["is_completed"], err)
	}

	// A question fetch after completion answers with the sentinel text.
	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/quiz/question", sid, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("post-completion question status = %d", status)
	}
	if got := rawString(t, body["error"]); !strings.Contains(strings.ToLower(got), "completed") {
		t.Fatalf("post-completion error = %q, must contain 'completed'", got)
	}

	// Report.
	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/quiz/report", sid, nil)
	if status != http.StatusOK {
		t.Fatalf("report status = %d", status)
	}
	if got := rawString(t, body["risk_level"]); got != "Low" {
		t.Fatalf("risk_level = %q", got)
	}
}

func TestStartQuizBounds(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/quiz/start", "", map[string]any{"num_questions": 11})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if _, ok := body["error"]; !ok {
		t.Fatalf("missing error body")
	}

	// Zero falls back to the default.
	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/quiz/start", "", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("default start status = %d", status)
	}
	var n int
	if err := json.Unmarshal(body["num_questions"], &n); err != nil || n != 5 {
		t.Fatalf("num_questions = %s, want 5", body["num_questions"])
	}
}

func TestSessionHeaderRequired(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, http.MethodGet, srv.URL+"/api/quiz/question", "", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if got := rawString(t, body["error"]); !strings.Contains(got, api.HeaderSessionID) {
		t.Fatalf("error = %q", got)
	}

	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/quiz/question", "nope", nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if got := rawString(t, body["error"]); got != "Session not found" {
		t.Fatalf("error = %q", got)
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	srv := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/api/quiz/start", "", map[string]any{"num_questions": 1})
	sid := rawString(t, body["session_id"])
	doJSON(t, http.MethodGet, srv.URL+"/api/quiz/question", sid, nil)

	// Invalid label.
	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/quiz/answer", sid, map[string]any{
		"question_id": 1,
		"answer":      "Suspicious",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("invalid label status = %d", status)
	}

	// Missing fields caught by binding.
	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/quiz/answer", sid, map[string]any{})
	if status != http.StatusBadRequest {
		t.Fatalf("missing fields status = %d", status)
	}
	if _, ok := body["error"]; !ok {
		t.Fatalf("missing error body")
	}

	// Duplicate answer.
	doJSON(t, http.MethodPost, srv.URL+"/api/quiz/answer", sid, map[string]any{
		"question_id": 1, "answer": "Phishing",
	})
	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/quiz/answer", sid, map[string]any{
		"question_id": 1, "answer": "Safe",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("duplicate answer status = %d", status)
	}
	if got := rawString(t, body["error"]); got != "Question already answered" {
		t.Fatalf("duplicate answer error = %q", got)
	}

	// The request id middleware tags every response.
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
}
