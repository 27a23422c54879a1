package model

import "encoding/json"

// BiasEntry is a single cell of the bias heatmap. The service emits the
// object form; older builds emitted a bare vulnerability number, so the
// decoder accepts both.
type BiasEntry struct {
	VulnerabilityPercentage float64 `json:"vulnerability_percentage"`
	TimesExposed            int     `json:"times_exposed,omitempty"`
	TimesFailed             int     `json:"times_failed,omitempty"`
}

func (b *BiasEntry) UnmarshalJSON(data []byte) error {
	var pct float64
	if err := json.Unmarshal(data, &pct); err == nil {
		*b = BiasEntry{VulnerabilityPercentage: pct}
		return nil
	}

	type plain BiasEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BiasEntry(p)
	return nil
}

// ThreatForecast names the vector the user is most likely to fall for next.
type ThreatForecast struct {
	HighestRiskVector string  `json:"highest_risk_vector"`
	Probability       float64 `json:"probability"`
	Scenario          string  `json:"scenario"`
}

// Report is the aggregate result of a completed session. Created once at
// completion, immutable thereafter.
type Report struct {
	SessionID             string               `json:"session_id,omitempty"`
	ScorePercentage       float64              `json:"score_percentage"`
	RiskLevel             string               `json:"risk_level"`
	TotalQuestions        int                  `json:"total_questions,omitempty"`
	CorrectAnswers        int                  `json:"correct_answers"`
	BiasHeatmap           map[string]BiasEntry `json:"bias_heatmap,omitempty"`
	ZeroDayThreatForecast *ThreatForecast      `json:"zero_day_threat_forecast,omitempty"`
	DefenseProtocol       []string             `json:"defense_protocol,omitempty"`
}
