package server

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func completedSession(results []bool, trigger string) *QuizSession {
	store := NewSessionStore()
	sess := store.Create(len(results))
	for i, correct := range results {
		sess.Answers = append(sess.Answers, RecordedAnswer{
			QuestionID: i + 1,
			Correct:    correct,
			Trigger:    trigger,
		})
		sess.BiasExposures[trigger]++
		if !correct {
			sess.BiasCounts[trigger]++
		}
	}
	sess.CurrentIndex = len(results)
	sess.Completed = true
	return sess
}

func TestBuildReportScoreAndRisk(t *testing.T) {
	svc := NewReportService(zerolog.Nop())

	cases := []struct {
		name    string
		results []bool
		score   float64
		risk    string
	}{
		{"all correct", []bool{true, true, true, true, true}, 100, "Low"},
		{"four of five", []bool{true, true, true, true, false}, 80, "Low"},
		{"three of five", []bool{true, true, true, false, false}, 60, "Moderate"},
		{"two of five", []bool{true, true, false, false, false}, 40, "High"},
		{"one of five", []bool{true, false, false, false, false}, 20, "Critical"},
	}
	for _, tc := range cases {
		rep, err := svc.BuildReport(completedSession(tc.results, "URGENCY"))
		if err != nil {
			t.Fatalf("%s: BuildReport: %v", tc.name, err)
		}
		if rep.ScorePercentage != tc.score {
			t.Fatalf("%s: score = %v, want %v", tc.name, rep.ScorePercentage, tc.score)
		}
		if rep.RiskLevel != tc.risk {
			t.Fatalf("%s: risk = %q, want %q", tc.name, rep.RiskLevel, tc.risk)
		}
	}
}

func TestBuildReportRequiresCompletion(t *testing.T) {
	svc := NewReportService(zerolog.Nop())
	store := NewSessionStore()
	sess := store.Create(3)
	sess.Answers = append(sess.Answers, RecordedAnswer{QuestionID: 1, Correct: true})
	sess.CurrentIndex = 1

	if _, err := svc.BuildReport(sess); !errors.Is(err, ErrQuizNotCompleted) {
		t.Fatalf("err = %v, want ErrQuizNotCompleted", err)
	}
}

func TestBuildReportHeatmapAndForecast(t *testing.T) {
	svc := NewReportService(zerolog.Nop())
	sess := completedSession([]bool{false, false, true, true}, "FEAR")

	rep, err := svc.BuildReport(sess)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	fear := rep.BiasHeatmap["FEAR"]
	if fear.TimesExposed != 4 || fear.TimesFailed != 2 {
		t.Fatalf("FEAR entry = %+v", fear)
	}
	if fear.VulnerabilityPercentage != 50 {
		t.Fatalf("FEAR vulnerability = %v, want 50", fear.VulnerabilityPercentage)
	}

	// Unexposed triggers still have entries, at zero.
	if entry, ok := rep.BiasHeatmap["AUTHORITY"]; !ok || entry.VulnerabilityPercentage != 0 {
		t.Fatalf("AUTHORITY entry = %+v (present=%v)", entry, ok)
	}

	if rep.ZeroDayThreatForecast == nil {
		t.Fatalf("missing threat forecast with failures recorded")
	}
	if rep.ZeroDayThreatForecast.HighestRiskVector != "ACCOUNT_COMPROMISE_SCARE" {
		t.Fatalf("forecast vector = %q", rep.ZeroDayThreatForecast.HighestRiskVector)
	}
	if rep.ZeroDayThreatForecast.Probability != 50 {
		t.Fatalf("forecast probability = %v, want 50", rep.ZeroDayThreatForecast.Probability)
	}
}

func TestBuildReportForecastProbabilityCapped(t *testing.T) {
	svc := NewReportService(zerolog.Nop())
	sess := completedSession([]bool{false, false, false}, "URGENCY")

	rep, err := svc.BuildReport(sess)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if rep.ZeroDayThreatForecast == nil {
		t.Fatalf("missing forecast")
	}
	if got := rep.ZeroDayThreatForecast.Probability; got != 95 {
		t.Fatalf("probability = %v, want capped at 95", got)
	}
}

func TestBuildReportCleanRunHasNoForecast(t *testing.T) {
	svc := NewReportService(zerolog.Nop())
	sess := completedSession([]bool{true, true, true}, "SCARCITY")

	rep, err := svc.BuildReport(sess)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if rep.ZeroDayThreatForecast != nil {
		t.Fatalf("forecast present with no failures: %+v", rep.ZeroDayThreatForecast)
	}
	if len(rep.DefenseProtocol) != len(baseDefenseProtocol) {
		t.Fatalf("protocol = %d lines, want %d", len(rep.DefenseProtocol), len(baseDefenseProtocol))
	}
}

func TestDefenseProtocolLeadsWithWorstTrigger(t *testing.T) {
	svc := NewReportService(zerolog.Nop())
	sess := completedSession([]bool{false, true}, "URGENCY")

	rep, err := svc.BuildReport(sess)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if len(rep.DefenseProtocol) != len(baseDefenseProtocol)+1 {
		t.Fatalf("protocol = %d lines, want %d", len(rep.DefenseProtocol), len(baseDefenseProtocol)+1)
	}
	if rep.DefenseProtocol[0] == baseDefenseProtocol[0] {
		t.Fatalf("protocol does not lead with the trigger-specific line")
	}
}
