package report

import "strings"

// Rule-based triage: a pure scoring function and a priority-ordered
// recommendation table. Both are deterministic functions of the symptom list
// alone, so recomputing a report always yields the same result.

// MaxSymptoms is the practical cap on entries accepted per report.
const MaxSymptoms = 20

const (
	// MinUrgencyLevel .. MaxUrgencyLevel bound the computed urgency.
	MinUrgencyLevel = 1
	MaxUrgencyLevel = 5
)

// Score maps a symptom list to an urgency level in [1,5]. The point total is
// a commutative sum, so the result is independent of entry order. An empty
// list scores level 1.
func Score(symptoms []SymptomEntry) int {
	points := 0
	for _, s := range symptoms {
		name := strings.ToLower(s.Name)
		switch {
		case strings.Contains(name, "difficulty breathing"), strings.Contains(name, "chest pain"):
			points += 3
		case strings.Contains(name, "fever"), strings.Contains(name, "shortness of breath"):
			points += 2
		default:
			points++
		}

		switch s.Severity {
		case SeveritySevere:
			points += 2
		case SeverityModerate:
			points++
		}

		if s.DurationDays > 7 {
			points++
		}
	}

	switch {
	case points >= 10:
		return 5
	case points >= 7:
		return 4
	case points >= 4:
		return 3
	case points >= 2:
		return 2
	default:
		return 1
	}
}

// The five advisories, in priority order.
const (
	AdviceEmergency = "Seek emergency care immediately or call emergency services. " +
		"Severe difficulty breathing requires urgent medical attention."
	AdviceUrgentCare = "Visit an urgent care clinic as soon as possible. " +
		"Chest pain should be evaluated by a medical professional."
	AdviceFever24h = "Schedule a medical visit within the next 24 hours. " +
		"Stay hydrated, rest, and monitor your temperature closely."
	AdviceRespiratory48h = "Schedule a medical visit within 24-48 hours. " +
		"Rest at home, limit contact with others, and monitor your breathing."
	AdviceMonitor = "Monitor your symptoms and seek medical care if they persist " +
		"beyond 2-3 days or worsen."
)

// Recommend returns the advisory for a report. Rules are evaluated in
// priority order and the first applicable one wins; the default rule makes
// this a total function.
func Recommend(r *SymptomReport) string {
	hasSevere := false
	hasModerateOrWorse := false
	for _, s := range r.Symptoms {
		if s.Severity == SeveritySevere {
			hasSevere = true
		}
		if s.Severity == SeveritySevere || s.Severity == SeverityModerate {
			hasModerateOrWorse = true
		}
	}

	for _, s := range r.Symptoms {
		if strings.Contains(strings.ToLower(s.Name), "difficulty breathing") && hasSevere {
			return AdviceEmergency
		}
	}

	for _, s := range r.Symptoms {
		if strings.Contains(strings.ToLower(s.Name), "chest pain") && hasModerateOrWorse {
			return AdviceUrgentCare
		}
	}

	for _, s := range r.Symptoms {
		if strings.Contains(strings.ToLower(s.Name), "fever") &&
			(s.Severity == SeveritySevere || s.DurationDays > 3) {
			return AdviceFever24h
		}
	}

	if len(r.Symptoms) >= 3 {
		for _, s := range r.Symptoms {
			name := strings.ToLower(s.Name)
			if strings.Contains(name, "cough") || strings.Contains(name, "breathing") {
				return AdviceRespiratory48h
			}
		}
	}

	return AdviceMonitor
}
