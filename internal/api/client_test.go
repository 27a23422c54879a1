package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rudranshhhhh/Cybercoach/internal/model"
)

func newTestClient(srv *httptest.Server) *Client {
	return New(srv.URL, 5*time.Second, zerolog.Nop())
}

func TestStartSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/quiz/start" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req model.StartQuizRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.NumQuestions != 5 {
			t.Errorf("num_questions = %d, want 5", req.NumQuestions)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"session_id": "abc-123",
			"message":    "Quiz started successfully",
		})
	}))
	defer srv.Close()

	sid, err := newTestClient(srv).StartSession(context.Background(), 5)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if sid != "abc-123" {
		t.Fatalf("session id = %q, want abc-123", sid)
	}
}

func TestStartSessionMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"message": "ok"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).StartSession(context.Background(), 5)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
}

func TestFetchNextQuestionAttachesSessionHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(HeaderSessionID); got != "sid-1" {
			t.Errorf("%s = %q, want sid-1", HeaderSessionID, got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"question": map[string]any{
				"id":            1,
				"scenario_type": "email",
				"content":       map[string]any{"from": "x", "subject": "y", "body": "z"},
			},
			"current_question": 1,
			"total_questions":  5,
			"difficulty_level": "ADVANCED",
		})
	}))
	defer srv.Close()

	res, err := newTestClient(srv).FetchNextQuestion(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("FetchNextQuestion: %v", err)
	}
	if res.Completed {
		t.Fatalf("unexpected completion")
	}
	if res.Page == nil {
		t.Fatalf("missing question page")
	}
	if res.Page.Question.ID != 1 || res.Page.TotalQuestions != 5 {
		t.Fatalf("page = %+v", res.Page)
	}
}

func TestFetchNextQuestionDecodesCompletionSentinel(t *testing.T) {
	// An already finished session answers with an error status whose body
	// carries the completion marker. That must surface as completion, not
	// as a failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   "Quiz is already completed",
			"message": "Request your report at /api/quiz/report",
		})
	}))
	defer srv.Close()

	res, err := newTestClient(srv).FetchNextQuestion(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("FetchNextQuestion: %v", err)
	}
	if !res.Completed {
		t.Fatalf("completion sentinel not decoded")
	}
	if res.Page != nil {
		t.Fatalf("page should be nil on completion")
	}
}

func TestFetchNextQuestionOtherErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": "Session not found"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchNextQuestion(context.Background(), "sid-1")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
	if netErr.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", netErr.StatusCode)
	}
	if netErr.Message != "Session not found" {
		t.Fatalf("message = %q", netErr.Message)
	}
}

func TestSubmitAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.SubmitAnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.QuestionID != 2 || req.Answer != "Phishing" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"correct":      true,
			"explanation":  "Spoofed sender domain.",
			"is_completed": false,
		})
	}))
	defer srv.Close()

	fb, err := newTestClient(srv).SubmitAnswer(context.Background(), "sid-1", 2, model.AnswerPhishing)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !fb.Correct || fb.IsCompleted {
		t.Fatalf("feedback = %+v", fb)
	}
}

func TestSubmitAnswerServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SubmitAnswer(context.Background(), "sid-1", 1, model.AnswerSafe)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
}

func TestFetchReportDecodesBothHeatmapForms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"score_percentage": 80.0,
			"risk_level":       "Low",
			"total_questions":  5,
			"correct_answers":  4,
			"bias_heatmap": map[string]any{
				"URGENCY": 50.0,
				"FEAR": map[string]any{
					"vulnerability_percentage": 100.0,
					"times_exposed":            1,
					"times_failed":             1,
				},
			},
		})
	}))
	defer srv.Close()

	rep, err := newTestClient(srv).FetchReport(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("FetchReport: %v", err)
	}
	if rep.RiskLevel != "Low" || rep.ScorePercentage != 80 {
		t.Fatalf("report = %+v", rep)
	}
	if got := rep.BiasHeatmap["URGENCY"].VulnerabilityPercentage; got != 50 {
		t.Fatalf("URGENCY vulnerability = %v, want 50", got)
	}
	fear := rep.BiasHeatmap["FEAR"]
	if fear.VulnerabilityPercentage != 100 || fear.TimesExposed != 1 || fear.TimesFailed != 1 {
		t.Fatalf("FEAR entry = %+v", fear)
	}
}

func TestTransportErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := newTestClient(srv).StartSession(context.Background(), 3)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
	if netErr.Unwrap() == nil {
		t.Fatalf("transport error not wrapped")
	}
}
