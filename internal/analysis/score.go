package analysis

import (
	"sort"
	"time"

	"github.com/erhandundarofficial/zerobait/internal/providers"
)

const (
	// maxScore is the risk score ceiling
	maxScore = 100

	// tierHighThreshold and tierMediumThreshold bound the severity tiers
	tierHighThreshold   = 70
	tierMediumThreshold = 40

	// Severity tiers derived from the risk score
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"

	// Weight constants for the additive scoring rules
	weightMalwareListHit       = 70
	weightReputationMalicious  = 60
	weightReputationSuspicious = 30
	weightDomainAge3d          = 25
	weightDomainAge7d          = 20
	weightDomainAge30d         = 10
	weightWeakGrade            = 10
	weightFailingGrade         = 20

	// Domain age thresholds in days
	ageThreshold3d  = 3
	ageThreshold7d  = 7
	ageThreshold30d = 30

	hoursPerDay = 24
)

// createdDateLayouts are the formats registration providers have been seen
// returning creation dates in
var createdDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Score maps a raw provider result bag to a risk score in [0, 100]. The
// function is deterministic and side-effect free: identical bags and clocks
// always yield identical scores. Unavailable, failed, and pending providers
// contribute nothing.
func Score(bag map[providers.Name]providers.Result, now time.Time) int {
	score := 0

	if matches, ok := payloadOf[providers.ThreatMatches](bag, providers.NameSafeBrowsing); ok && matches.Matches > 0 {
		score += weightMalwareListHit
	}

	if stats, ok := payloadOf[providers.ReputationStats](bag, providers.NameVirusTotal); ok {
		// Mutually exclusive: only the higher-priority branch fires.
		switch {
		case stats.Malicious > 0:
			score += weightReputationMalicious
		case stats.Suspicious > 0:
			score += weightReputationSuspicious
		}
	}

	if registration, ok := payloadOf[providers.Registration](bag, providers.NameWhois); ok {
		score += domainAgeWeight(registration.CreatedDate, now)
	}

	if grades, ok := payloadOf[providers.CertificateGrades](bag, providers.NameSSLLabs); ok {
		score += certificateWeight(grades.Grades)
	}

	if score > maxScore {
		score = maxScore
	}

	return score
}

// Tier buckets a risk score into a severity tier. Never persisted; always
// recomputed from the score so the two cannot drift apart.
func Tier(score int) string {
	switch {
	case score >= tierHighThreshold:
		return TierHigh
	case score >= tierMediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// domainAgeWeight scores how recently the domain was registered. An absent
// or unparseable creation date means the age is unknown and contributes 0.
func domainAgeWeight(createdDate string, now time.Time) int {
	created, ok := parseCreatedDate(createdDate)
	if !ok {
		return 0
	}

	ageDays := int(now.Sub(created).Hours() / hoursPerDay)
	if ageDays < 0 {
		ageDays = 0
	}

	switch {
	case ageDays <= ageThreshold3d:
		return weightDomainAge3d
	case ageDays <= ageThreshold7d:
		return weightDomainAge7d
	case ageDays <= ageThreshold30d:
		return weightDomainAge30d
	default:
		return 0
	}
}

// certificateWeight scores the endpoint grade list: sort the grades and read
// the alphabetically first entry. A grade at or below "B" in sort order adds
// the weak weight; an "F" or "T" in that slot adds the failing weight on top.
// A failing grade therefore only registers when no better grade sorts ahead
// of it.
func certificateWeight(grades []string) int {
	if len(grades) == 0 {
		return 0
	}

	sorted := make([]string, len(grades))
	copy(sorted, grades)
	sort.Strings(sorted)

	first := sorted[0]

	weight := 0
	if first <= "B" {
		weight += weightWeakGrade
	}

	if first == "F" || first == "T" {
		weight += weightFailingGrade
	}

	return weight
}

// parseCreatedDate tries the known provider date formats
func parseCreatedDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range createdDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// payloadOf extracts a typed payload from the bag when the provider settled ok
func payloadOf[T providers.Payload](bag map[providers.Name]providers.Result, name providers.Name) (T, bool) {
	var zero T

	result, ok := bag[name]
	if !ok || result.Status != providers.StatusOK {
		return zero, false
	}

	payload, ok := result.Data.(T)
	if !ok {
		return zero, false
	}

	return payload, true
}
