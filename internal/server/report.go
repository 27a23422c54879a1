package server

import (
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/Rudranshhhhh/Cybercoach/internal/model"
)

// ErrQuizNotCompleted is returned when a report is requested before the
// last question has been answered.
var ErrQuizNotCompleted = errors.New("Quiz not completed yet")

// forecastScenarios maps each psychological trigger to the attack most
// likely to exploit it next.
var forecastScenarios = map[string]model.ThreatForecast{
	"AUTHORITY": {
		HighestRiskVector: "EXECUTIVE_IMPERSONATION",
		Scenario:          "A message styled as your CEO or IT department demanding an immediate, confidential action such as a payment, credential, or gift-card purchase.",
	},
	"URGENCY": {
		HighestRiskVector: "DEADLINE_CREDENTIAL_HARVESTING",
		Scenario:          "An account-suspension notice with a countdown that funnels you to a spoofed login page before you can inspect the sender.",
	},
	"SCARCITY": {
		HighestRiskVector: "LIMITED_OFFER_LURE",
		Scenario:          "A 'limited slots' or free-perk offer, often via QR code or short link, that trades a too-good deal for your credentials.",
	},
	"CURIOSITY": {
		HighestRiskVector: "MALICIOUS_ATTACHMENT",
		Scenario:          "An unexpected document - an invoice, a shared file, a 'photo of you' - whose only purpose is to be opened.",
	},
	"FEAR": {
		HighestRiskVector: "ACCOUNT_COMPROMISE_SCARE",
		Scenario:          "A fake breach or virus warning that stampedes you into calling a number or entering credentials to 'secure' the account.",
	},
}

var baseDefenseProtocol = []string{
	"Verify sender domains character by character before acting on any request.",
	"Treat every deadline in a message as a pressure tactic until proven otherwise.",
	"Never relay passwords, 2FA codes, or payment details through chat, email, or phone.",
	"Confirm unusual requests through a second channel you already trust.",
	"Judge permission screens by the scopes requested, not by the app's name.",
}

// ReportService builds the final threat-intelligence report for a
// completed session.
type ReportService struct {
	log zerolog.Logger
}

// NewReportService creates a ReportService.
func NewReportService(log zerolog.Logger) *ReportService {
	return &ReportService{log: log.With().Str("component", "report_service").Logger()}
}

// BuildReport aggregates a session into its immutable report.
func (s *ReportService) BuildReport(sess *QuizSession) (*model.Report, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.Completed {
		return nil, ErrQuizNotCompleted
	}

	correct := 0
	for _, a := range sess.Answers {
		if a.Correct {
			correct++
		}
	}
	total := len(sess.Answers)
	score := 0.0
	if total > 0 {
		score = math.Round(float64(correct)/float64(total)*1000) / 10
	}

	heatmap := make(map[string]model.BiasEntry, len(model.PsychologicalTriggers))
	var worstTrigger string
	var worstVulnerability float64
	for _, trigger := range model.PsychologicalTriggers {
		exposures := sess.BiasExposures[trigger]
		failures := sess.BiasCounts[trigger]
		vulnerability := 0.0
		if exposures > 0 {
			vulnerability = math.Round(float64(failures) / float64(exposures) * 100)
		}
		heatmap[trigger] = model.BiasEntry{
			VulnerabilityPercentage: vulnerability,
			TimesExposed:            exposures,
			TimesFailed:             failures,
		}
		if failures > 0 && vulnerability > worstVulnerability {
			worstVulnerability = vulnerability
			worstTrigger = trigger
		}
	}

	report := &model.Report{
		SessionID:       sess.ID,
		ScorePercentage: score,
		RiskLevel:       riskLevel(score),
		TotalQuestions:  sess.NumQuestions,
		CorrectAnswers:  correct,
		BiasHeatmap:     heatmap,
		DefenseProtocol: defenseProtocol(worstTrigger),
	}

	if worstTrigger != "" {
		forecast := forecastScenarios[worstTrigger]
		// Probability tracks the measured vulnerability, capped so the
		// forecast never claims certainty.
		forecast.Probability = math.Min(worstVulnerability, 95)
		report.ZeroDayThreatForecast = &forecast
	}

	s.log.Info().
		Str("session_id", sess.ID).
		Float64("score", score).
		Str("risk_level", report.RiskLevel).
		Msg("report generated")
	return report, nil
}

func riskLevel(score float64) string {
	switch {
	case score >= 80:
		return "Low"
	case score >= 60:
		return "Moderate"
	case score >= 40:
		return "High"
	default:
		return "Critical"
	}
}

// defenseProtocol returns the base recommendations, leading with the one
// targeting the user's weakest trigger.
func defenseProtocol(worstTrigger string) []string {
	lead := map[string]string{
		"AUTHORITY": "When rank is used to rush you, slow down: verify the requester through a channel they do not control.",
		"URGENCY":   "Your weakest moment is a countdown. Institute a personal rule: no credential entry within an hour of any deadline message.",
		"SCARCITY":  "If an offer expires the moment you hesitate, the offer is the attack.",
		"CURIOSITY": "Unexpected attachments and links are not yours to open; confirm with the sender first.",
		"FEAR":      "Security warnings that demand immediate action are the least trustworthy kind. Navigate to the site yourself.",
	}

	protocol := make([]string, 0, len(baseDefenseProtocol)+1)
	if line, ok := lead[worstTrigger]; ok {
		protocol = append(protocol, line)
	}
	return append(protocol, baseDefenseProtocol...)
}
