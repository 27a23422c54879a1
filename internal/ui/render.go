package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Rudranshhhhh/Cybercoach/internal/model"
	"github.com/Rudranshhhhh/Cybercoach/internal/session"
)

// ANSI styles used by the renderer.
const (
	styleReset  = "\x1b[0m"
	styleBold   = "\x1b[1m"
	styleDim    = "\x1b[2m"
	styleRed    = "\x1b[31m"
	styleGreen  = "\x1b[32m"
	styleYellow = "\x1b[33m"
	styleCyan   = "\x1b[36m"

	clearScreen = "\x1b[2J\x1b[H"
)

// Renderer paints the exam screens. The terminal is in raw mode while the
// exam runs, so every newline must be written as CRLF.
type Renderer struct {
	out   io.Writer
	width int
}

func NewRenderer(out io.Writer, width int) *Renderer {
	if width <= 0 || width > 100 {
		width = 100
	}
	return &Renderer{out: out, width: width}
}

// Render paints the screen for the given snapshot. exitPending overlays the
// leave-confirmation prompt on top of the current phase.
func (r *Renderer) Render(st session.State, exitPending bool) {
	var b strings.Builder
	b.WriteString(clearScreen)

	switch st.Phase {
	case session.PhaseLoading:
		r.header(&b, st)
		line(&b, "")
		line(&b, styleDim+"Loading..."+styleReset)
	case session.PhaseAwaitingAnswer:
		r.header(&b, st)
		r.scenario(&b, st.Question)
		line(&b, "")
		line(&b, styleBold+"Is this Phishing or Safe?"+styleReset)
		line(&b, styleDim+"[p] Phishing   [s] Safe   [q] leave exam"+styleReset)
	case session.PhaseSubmitting:
		r.header(&b, st)
		r.scenario(&b, st.Question)
		line(&b, "")
		line(&b, styleDim+"Submitting answer..."+styleReset)
	case session.PhaseShowingFeedback:
		r.header(&b, st)
		r.feedback(&b, st.Feedback)
		line(&b, "")
		line(&b, styleDim+"[n] next question   [q] leave exam"+styleReset)
	case session.PhaseCompleted:
		r.report(&b, st.Report)
		line(&b, "")
		line(&b, styleDim+"[f] finish"+styleReset)
	case session.PhaseFailed:
		r.header(&b, st)
		line(&b, "")
		line(&b, styleRed+st.ErrMessage+styleReset)
		line(&b, "")
		line(&b, styleDim+"[r] retry   [q] leave exam"+styleReset)
	case session.PhaseCanceled:
		line(&b, "")
		line(&b, styleRed+styleBold+"Exam canceled."+styleReset)
		line(&b, styleDim+"Reason: "+string(st.CancelReason)+styleReset)
		line(&b, "")
		line(&b, "You will be returned shortly.")
	}

	if exitPending {
		line(&b, "")
		line(&b, styleYellow+styleBold+"Leave the exam? Your progress will be lost."+styleReset)
		line(&b, styleYellow+"[y] yes, cancel the exam   [any other key] stay"+styleReset)
	}

	_, _ = io.WriteString(r.out, b.String())
}

// Message writes a one-off notice below the current screen.
func (r *Renderer) Message(msg string) {
	_, _ = io.WriteString(r.out, "\r\n"+styleYellow+msg+styleReset+"\r\n")
}

func (r *Renderer) header(b *strings.Builder, st session.State) {
	title := styleBold + styleCyan + "CYBERCOACH PHISHING DRILL" + styleReset
	if st.Total > 0 {
		title += fmt.Sprintf("   "+styleDim+"question %d of %d"+styleReset, st.Current, st.Total)
	}
	if st.Difficulty != "" {
		title += "   " + styleYellow + st.Difficulty + styleReset
	}
	line(b, title)
	line(b, strings.Repeat("=", r.width))
}

func (r *Renderer) scenario(b *strings.Builder, q *model.Question) {
	if q == nil {
		return
	}
	line(b, "")
	line(b, styleDim+scenarioTitle(q.ScenarioType)+styleReset)
	line(b, "")

	c := q.Content
	switch q.ScenarioType {
	case model.ScenarioEmail:
		field(b, "From", c.From)
		field(b, "Subject", c.Subject)
		line(b, "")
		r.wrapped(b, c.Body)
	case model.ScenarioSMS, model.ScenarioWhatsApp, model.ScenarioSlack:
		field(b, "From", c.From)
		line(b, "")
		r.wrapped(b, c.Body)
	case model.ScenarioOAuthScreen:
		field(b, "Application", c.From)
		field(b, "Prompt", c.Subject)
		line(b, "")
		r.wrapped(b, c.Body)
		if len(c.PermissionsRequested) > 0 {
			line(b, "")
			line(b, styleBold+"This app is requesting:"+styleReset)
			for _, p := range c.PermissionsRequested {
				line(b, "  * "+p)
			}
		}
	case model.ScenarioPopup, model.ScenarioQRPoster, model.ScenarioCodeReview,
		model.ScenarioMetaAI, model.ScenarioAIChat:
		if c.From != "" {
			field(b, "Source", c.From)
		}
		if c.Subject != "" {
			field(b, "Title", c.Subject)
		}
		line(b, "")
		r.wrapped(b, c.Body)
	default:
		field(b, "From", c.From)
		field(b, "Subject", c.Subject)
		line(b, "")
		r.wrapped(b, c.Body)
	}
}

func (r *Renderer) feedback(b *strings.Builder, fb *model.Feedback) {
	if fb == nil {
		return
	}
	line(b, "")
	if fb.Correct {
		line(b, styleGreen+styleBold+"Correct!"+styleReset)
	} else {
		line(b, styleRed+styleBold+"Incorrect."+styleReset)
	}
	line(b, "")
	r.wrapped(b, fb.Explanation)
	if fb.LearningTip != "" {
		line(b, "")
		line(b, styleBold+"Tip:"+styleReset)
		r.wrapped(b, fb.LearningTip)
	}
	if why := fb.WhyItWorks(); why != "" {
		line(b, "")
		line(b, styleBold+"Why this works on people:"+styleReset)
		r.wrapped(b, why)
	}
	if fb.ThreatVector != "" && fb.ThreatVector != model.ThreatVectorBenign {
		line(b, "")
		field(b, "Threat vector", fb.ThreatVector)
	}
	if fb.ComplexityScore > 0 {
		field(b, "Complexity", fmt.Sprintf("%.0f/10", fb.ComplexityScore))
	}
}

func (r *Renderer) report(b *strings.Builder, rep *model.Report) {
	if rep == nil {
		return
	}
	line(b, styleBold+styleCyan+"THREAT RESILIENCE REPORT"+styleReset)
	line(b, strings.Repeat("=", r.width))
	line(b, "")
	field(b, "Score", fmt.Sprintf("%.1f%% (%d/%d correct)", rep.ScorePercentage, rep.CorrectAnswers, rep.TotalQuestions))
	field(b, "Risk level", riskStyled(rep.RiskLevel))

	if len(rep.BiasHeatmap) > 0 {
		line(b, "")
		line(b, styleBold+"Psychological bias heatmap"+styleReset)
		triggers := make([]string, 0, len(rep.BiasHeatmap))
		for t := range rep.BiasHeatmap {
			triggers = append(triggers, t)
		}
		sort.Strings(triggers)
		for _, t := range triggers {
			e := rep.BiasHeatmap[t]
			bar := strings.Repeat("#", int(e.VulnerabilityPercentage/10))
			line(b, fmt.Sprintf("  %-10s %5.1f%%  %s", t, e.VulnerabilityPercentage, styleRed+bar+styleReset))
		}
	}

	if f := rep.ZeroDayThreatForecast; f != nil {
		line(b, "")
		line(b, styleBold+"Zero-day threat forecast"+styleReset)
		field(b, "  Highest risk", f.HighestRiskVector)
		field(b, "  Probability", fmt.Sprintf("%.0f%%", f.Probability))
		r.wrapped(b, "  "+f.Scenario)
	}

	if len(rep.DefenseProtocol) > 0 {
		line(b, "")
		line(b, styleBold+"Defense protocol"+styleReset)
		for i, step := range rep.DefenseProtocol {
			r.wrapped(b, fmt.Sprintf("  %d. %s", i+1, step))
		}
	}
}

func (r *Renderer) wrapped(b *strings.Builder, text string) {
	for _, ln := range wrap(text, r.width) {
		line(b, ln)
	}
}

func line(b *strings.Builder, s string) {
	b.WriteString(s)
	b.WriteString("\r\n")
}

func field(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	line(b, styleBold+name+":"+styleReset+" "+value)
}

func scenarioTitle(kind model.ScenarioKind) string {
	switch kind {
	case model.ScenarioEmail:
		return "-- INCOMING EMAIL --"
	case model.ScenarioPopup:
		return "-- BROWSER POPUP --"
	case model.ScenarioSlack:
		return "-- SLACK MESSAGE --"
	case model.ScenarioOAuthScreen:
		return "-- OAUTH CONSENT SCREEN --"
	case model.ScenarioQRPoster:
		return "-- POSTED QR FLYER --"
	case model.ScenarioCodeReview:
		return "-- PULL REQUEST --"
	case model.ScenarioSMS:
		return "-- TEXT MESSAGE --"
	case model.ScenarioWhatsApp:
		return "-- WHATSAPP MESSAGE --"
	case model.ScenarioMetaAI:
		return "-- AI ASSISTANT REPLY --"
	case model.ScenarioAIChat:
		return "-- AI CHAT TRANSCRIPT --"
	default:
		return "-- SCENARIO --"
	}
}

func riskStyled(level string) string {
	switch level {
	case "Low":
		return styleGreen + level + styleReset
	case "Moderate":
		return styleYellow + level + styleReset
	default:
		return styleRed + level + styleReset
	}
}

// wrap splits text into lines no longer than width, breaking on spaces.
func wrap(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			if len(cur)+1+len(w) > width {
				lines = append(lines, cur)
				cur = w
				continue
			}
			cur += " " + w
		}
		lines = append(lines, cur)
	}
	return lines
}
