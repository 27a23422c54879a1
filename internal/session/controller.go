// Package session holds the authoritative quiz-progress state machine.
// The controller drives the session protocol against the API client,
// enforces single-flight on every network step, and yields to the
// integrity guard: once the guard cancels, no response that arrives
// afterwards may touch displayed state.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Rudranshhhhh/Cybercoach/internal/api"
	"github.com/Rudranshhhhh/Cybercoach/internal/guard"
	"github.com/Rudranshhhhh/Cybercoach/internal/model"
)

// Phase is the controller's protocol state.
type Phase int

const (
	// PhaseLoading covers session start and every question fetch.
	PhaseLoading Phase = iota
	// PhaseAwaitingAnswer means a question is on screen.
	PhaseAwaitingAnswer
	// PhaseSubmitting means an answer is in flight.
	PhaseSubmitting
	// PhaseShowingFeedback means the evaluation is on screen.
	PhaseShowingFeedback
	// PhaseCompleted means the report has been retrieved.
	PhaseCompleted
	// PhaseFailed is the retryable error state for start/fetch/report
	// failures.
	PhaseFailed
	// PhaseCanceled is guard-driven and terminal.
	PhaseCanceled
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "LOADING"
	case PhaseAwaitingAnswer:
		return "AWAITING_ANSWER"
	case PhaseSubmitting:
		return "SUBMITTING"
	case PhaseShowingFeedback:
		return "SHOWING_FEEDBACK"
	case PhaseCompleted:
		return "COMPLETED"
	case PhaseFailed:
		return "FAILED"
	case PhaseCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// retryOp records which operation a Retry should re-invoke.
type retryOp int

const (
	opNone retryOp = iota
	opBegin
	opFetchQuestion
	opFetchReport
)

// ErrContract marks misuse of the controller by the integration layer,
// e.g. submitting without a loaded question.
var ErrContract = errors.New("session: contract violation")

// State is an immutable snapshot handed to the presentation layer.
type State struct {
	Phase        Phase
	SessionID    string
	Question     *model.Question
	Current      int
	Total        int
	Difficulty   string
	Feedback     *model.Feedback
	Report       *model.Report
	ErrMessage   string
	CancelReason guard.CancelReason
}

// Controller owns the quiz protocol state.
type Controller struct {
	client       *api.Client
	guard        *guard.Guard
	log          zerolog.Logger
	numQuestions int

	mu         sync.Mutex
	st         State
	submitting bool
	fetching   bool
	answered   map[int]bool
	retry      retryOp
	onChange   func(State)
}

// New creates a Controller and subscribes it to the guard's cancellation
// trigger, which preempts every other transition.
func New(client *api.Client, g *guard.Guard, numQuestions int, log zerolog.Logger) *Controller {
	c := &Controller{
		client:       client,
		guard:        g,
		log:          log.With().Str("component", "session_controller").Logger(),
		numQuestions: numQuestions,
		answered:     make(map[int]bool),
		st:           State{Phase: PhaseLoading, Total: numQuestions},
	}
	g.OnCancel(c.handleCancel)
	return c
}

// OnChange registers the presentation callback. It is invoked after every
// state transition with a snapshot; the callback must not call back into
// the controller synchronously.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// Begin starts the session and fetches the first question. A transport
// failure before a session identifier exists is fatal to the attempt: no
// question is ever requested and the retryable error state is shown.
func (c *Controller) Begin(ctx context.Context) {
	if c.guard.Canceled() {
		return
	}
	c.transition(func(st *State) {
		st.Phase = PhaseLoading
		st.ErrMessage = ""
	})

	sid, err := c.client.StartSession(ctx, c.numQuestions)
	if c.discard() {
		return
	}
	if err != nil {
		c.log.Error().Err(err).Msg("session start failed")
		c.fail(opBegin, "Failed to start quiz. Please check your connection and try again.")
		return
	}

	c.transition(func(st *State) { st.SessionID = sid })
	c.fetchQuestion(ctx)
}

// Next fetches the next question after feedback has been shown.
func (c *Controller) Next(ctx context.Context) {
	c.mu.Lock()
	if c.st.Phase != PhaseShowingFeedback || c.fetching {
		c.mu.Unlock()
		return
	}
	c.fetching = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.fetching = false
		c.mu.Unlock()
	}()

	if c.guard.Canceled() {
		return
	}
	c.transition(func(st *State) {
		st.Phase = PhaseLoading
		st.Feedback = nil
		st.ErrMessage = ""
	})
	c.fetchQuestion(ctx)
}

// Submit sends the chosen label for the current question. A second intent
// while one is in flight is ignored, and a question that was already
// acknowledged can never be submitted twice.
func (c *Controller) Submit(ctx context.Context, label model.AnswerLabel) {
	c.mu.Lock()
	if c.st.Phase != PhaseAwaitingAnswer || c.submitting {
		c.mu.Unlock()
		return
	}
	if c.st.SessionID == "" || c.st.Question == nil {
		c.mu.Unlock()
		c.log.Panic().Msg("submit without live session or loaded question")
		return
	}
	questionID := c.st.Question.ID
	if c.answered[questionID] {
		c.mu.Unlock()
		return
	}
	sid := c.st.SessionID
	c.submitting = true
	c.mu.Unlock()

	if c.guard.Canceled() {
		c.clearSubmitting()
		return
	}
	c.transition(func(st *State) {
		st.Phase = PhaseSubmitting
		st.ErrMessage = ""
	})

	fb, err := c.client.SubmitAnswer(ctx, sid, questionID, label)
	c.clearSubmitting()
	if c.discard() {
		return
	}
	if err != nil {
		// Not retried automatically and the question index must not
		// advance; the user re-answers explicitly.
		c.log.Error().Err(err).Int("question_id", questionID).Msg("submit failed")
		c.transition(func(st *State) {
			st.Phase = PhaseAwaitingAnswer
			st.ErrMessage = "Failed to submit answer. Please try again."
		})
		return
	}

	c.mu.Lock()
	c.answered[questionID] = true
	c.mu.Unlock()

	c.transition(func(st *State) {
		st.Phase = PhaseShowingFeedback
		st.Feedback = fb
	})

	if fb.IsCompleted {
		c.complete(ctx)
	}
}

// Retry re-invokes the operation that produced the current error state.
// Retry is always a user intent, never automatic.
func (c *Controller) Retry(ctx context.Context) {
	c.mu.Lock()
	if c.st.Phase != PhaseFailed {
		c.mu.Unlock()
		return
	}
	op := c.retry
	c.retry = opNone
	c.mu.Unlock()

	switch op {
	case opBegin:
		c.Begin(ctx)
	case opFetchQuestion:
		c.transition(func(st *State) {
			st.Phase = PhaseLoading
			st.ErrMessage = ""
		})
		c.fetchQuestion(ctx)
	case opFetchReport:
		c.complete(ctx)
	}
}

func (c *Controller) fetchQuestion(ctx context.Context) {
	c.mu.Lock()
	sid := c.st.SessionID
	total := c.st.Total
	c.mu.Unlock()

	res, err := c.client.FetchNextQuestion(ctx, sid)
	if c.discard() {
		return
	}
	if err != nil {
		c.log.Error().Err(err).Msg("question fetch failed")
		c.fail(opFetchQuestion, "Failed to load question. Please try again.")
		return
	}

	// Both completion signals route straight to report retrieval; an
	// empty question view is never shown.
	if res.Completed || (res.Page != nil && total > 0 && res.Page.CurrentQuestion > total) {
		c.complete(ctx)
		return
	}

	page := res.Page
	c.transition(func(st *State) {
		q := page.Question
		st.Phase = PhaseAwaitingAnswer
		st.Question = &q
		st.Feedback = nil
		// Index exposed to the presentation layer is non-decreasing.
		if page.CurrentQuestion > st.Current {
			st.Current = page.CurrentQuestion
		}
		if page.TotalQuestions > 0 {
			st.Total = page.TotalQuestions
		}
		if page.DifficultyLevel != "" {
			st.Difficulty = page.DifficultyLevel
		}
	})
}

// complete marks the session finished, disarms the guard's lockdown
// triggers and fetches the report with no intermediate empty state.
func (c *Controller) complete(ctx context.Context) {
	c.guard.MarkCompleted()

	c.mu.Lock()
	sid := c.st.SessionID
	c.mu.Unlock()

	rep, err := c.client.FetchReport(ctx, sid)
	if c.discard() {
		return
	}
	if err != nil {
		c.log.Error().Err(err).Msg("report fetch failed")
		c.fail(opFetchReport, "Failed to load your report. Please try again.")
		return
	}

	c.transition(func(st *State) {
		st.Phase = PhaseCompleted
		st.Report = rep
	})
}

// handleCancel is the guard subscription: it wins over any in-flight
// state and is the only path into PhaseCanceled.
func (c *Controller) handleCancel(reason guard.CancelReason) {
	c.transition(func(st *State) {
		st.Phase = PhaseCanceled
		st.CancelReason = reason
	})
}

// discard reports whether a just-arrived response must be dropped because
// the guard canceled while it was in flight. The canceled flag is read
// from the guard at each boundary, never cached.
func (c *Controller) discard() bool {
	return c.guard.Canceled()
}

func (c *Controller) clearSubmitting() {
	c.mu.Lock()
	c.submitting = false
	c.mu.Unlock()
}

func (c *Controller) fail(op retryOp, msg string) {
	c.mu.Lock()
	c.retry = op
	c.mu.Unlock()
	c.transition(func(st *State) {
		st.Phase = PhaseFailed
		st.ErrMessage = msg
	})
}

// transition applies a mutation and notifies the presentation layer.
// Once PhaseCanceled is reached every further transition is ignored.
func (c *Controller) transition(mutate func(*State)) {
	c.mu.Lock()
	if c.st.Phase == PhaseCanceled {
		// Terminal: late transitions, including a second cancellation,
		// are dropped and the first reason is kept.
		c.mu.Unlock()
		return
	}
	mutate(&c.st)
	snapshot := c.st
	notify := c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
}
