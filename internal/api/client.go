// Package api is the typed HTTP client for the quiz scoring service.
// It owns no protocol state beyond attaching the session token it is
// handed; every call is one-shot with no retries or caching.
package api

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

// HeaderSessionID carries the session token on every in-session request.
const HeaderSessionID = "X-Session-ID"

// Client talks to the quiz API over JSON/HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a Client for the given base URL. The timeout bounds each
// individual round-trip.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "api_client").Logger(),
	}
}

// QuestionResult is the decoded outcome of a question fetch. The service
// reports normal end-of-session through its error channel, so the result
// is a tagged variant rather than a (page, error) pair alone: exactly one
// of Completed or Page is meaningful.
type QuestionResult struct {
	Completed bool
	Page      *model.QuestionPage
}

// StartSession opens a new quiz session and returns its opaque token.
func (c *Client) StartSession(ctx context.Context, numQuestions int) (string, error) {
	body := model.StartQuizRequest{NumQuestions: numQuestions}

	var resp model.StartQuizResponse
	if err := c.do(ctx, http.MethodPost, "/api/quiz/start", "", body, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", &NetworkError{Op: "start session", Message: "no session_id in response"}
	}

	c.log.Debug().Str("session_id", resp.SessionID).Int("num_questions", numQuestions).Msg("session started")
	return resp.SessionID, nil
}

// FetchNextQuestion retrieves the next question for the session, or
// reports completion. The "completed" marker in the service's error text
// is decoded here so the ambiguous sentinel never leaks to callers.
func (c *Client) FetchNextQuestion(ctx context.Context, sessionID string) (QuestionResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/quiz/question", sessionID, nil)
	if err != nil {
		return QuestionResult{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return QuestionResult{}, &NetworkError{Op: "fetch question", Err: err}
	}
	defer resp.Body.Close()

	// The service answers a fetch on a finished session with an error
	// status whose body carries the completion marker, so the body has to
	// be decoded before the status is judged.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return QuestionResult{}, &NetworkError{Op: "fetch question", Err: err}
	}

	var page model.QuestionPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return QuestionResult{}, &NetworkError{Op: "fetch question", StatusCode: resp.StatusCode, Err: err}
	}

	if page.Error != "" {
		if strings.Contains(strings.ToLower(page.Error), "completed") {
			return QuestionResult{Completed: true}, nil
		}
		return QuestionResult{}, &NetworkError{Op: "fetch question", StatusCode: resp.StatusCode, Message: page.Error}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return QuestionResult{}, &NetworkError{Op: "fetch question", StatusCode: resp.StatusCode}
	}

	return QuestionResult{Page: &page}, nil
}

// SubmitAnswer submits the chosen label for a question and returns the
// service's evaluation. A failed submission is never retried here; the
// caller decides whether to re-invoke.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID string, questionID int, answer model.AnswerLabel) (*model.Feedback, error) {
	body := model.SubmitAnswerRequest{
		QuestionID: questionID,
		Answer:     string(answer),
		Reasoning:  "",
	}

	var fb model.Feedback
	if err := c.do(ctx, http.MethodPost, "/api/quiz/answer", sessionID, body, &fb); err != nil {
		return nil, err
	}
	return &fb, nil
}

// FetchReport retrieves the final report for a completed session.
func (c *Client) FetchReport(ctx context.Context, sessionID string) (*model.Report, error) {
	var rep model.Report
	if err := c.do(ctx, http.MethodGet, "/api/quiz/report", sessionID, nil, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, sessionID string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(HeaderSessionID, sessionID)
	}
	return req, nil
}

// do executes a request and decodes a 2xx JSON body into out. Non-2xx
// responses become a NetworkError carrying the service's error text when
// one is present.
func (c *Client) do(ctx context.Context, method, path, sessionID string, body, out interface{}) error {
	op := fmt.Sprintf("%s %s", method, path)

	req, err := c.newRequest(ctx, method, path, sessionID, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &errBody)
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: err}
		}
	}
	return nil
}
