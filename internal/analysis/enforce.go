package analysis

import (
	"strings"

	"github.com/samber/lo"
)

const (
	// floorHigh is the minimum score implied by high-severity narrative cues
	floorHigh = 70
	// floorMedium is the minimum score implied by medium-severity cues
	floorMedium = 40

	// HighSeverityDisclaimer replaces reassuring narratives on high-tier results
	HighSeverityDisclaimer = "This site shows high-risk indicators from security checks. Avoid interacting or entering any credentials."
	// LowSeverityReassurance replaces alarming narratives on low-tier results
	LowSeverityReassurance = "No major issues detected from security checks. It appears safe, but use normal caution online."
)

// highSeverityCues imply the narrative is describing real danger
var highSeverityCues = []string{
	"avoid",
	"do not visit",
	"malware",
	"virus",
	"phishing",
	"ransomware",
	"dangerous",
	"harmful",
	"deceptive",
	"unsafe",
	"pirated",
	"cracked",
	"unofficial software",
}

// mediumSeverityCues imply elevated but not confirmed risk
var mediumSeverityCues = []string{
	"suspicious",
	"be cautious",
	"use caution",
	"unknown trust",
	"unverified",
	"potentially risky",
	"could be risky",
}

// reassuringPhrases must not survive in a high-tier narrative
var reassuringPhrases = []string{
	"seems safe",
	"safe to use",
	"appears safe",
	"likely safe",
	"not flagged",
}

// alarmingPhrases must not survive in a low-tier narrative
var alarmingPhrases = []string{
	"dangerous",
	"high risk",
	"malware",
	"phishing",
}

// NarrativeFloor derives a conservative minimum risk score from the
// narrative's wording, so the numeric score can never show less danger than
// the prose implies. The final score is max(computed, floor).
func NarrativeFloor(text string) int {
	lower := strings.ToLower(text)

	if containsAny(lower, highSeverityCues) {
		return floorHigh
	}

	if containsAny(lower, mediumSeverityCues) {
		return floorMedium
	}

	return 0
}

// Reconcile rewrites a narrative whose tone contradicts the severity tier:
// reassuring wording on a high tier becomes the fixed disclaimer, alarming
// wording on a low tier becomes the fixed reassurance. Anything else passes
// through unchanged.
func Reconcile(text, tier string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return s
	}

	lower := strings.ToLower(s)

	switch tier {
	case TierHigh:
		if containsAny(lower, reassuringPhrases) {
			return HighSeverityDisclaimer
		}
	case TierLow:
		if containsAny(lower, alarmingPhrases) {
			return LowSeverityReassurance
		}
	}

	return s
}

// containsAny reports whether any cue occurs in the lowercased text
func containsAny(lower string, cues []string) bool {
	return lo.SomeBy(cues, func(cue string) bool {
		return strings.Contains(lower, cue)
	})
}
