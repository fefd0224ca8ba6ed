package spam

import (
	"regexp"
	"strings"

	"github.com/mazzlabs/mailworks/internal/core"
)

// Classification is the spam band a score falls into.
type Classification string

const (
	Ham        Classification = "ham"
	Suspicious Classification = "suspicious"
	Spam       Classification = "spam"
)

// Verdict is the outcome of scoring one message. It is informational:
// delivery is never gated or routed on it.
type Verdict struct {
	Score          int
	Classification Classification
	Reason         string
}

// keywordWeights maps spam phrases to their score contribution per
// occurrence in the lowercased subject+body text.
var keywordWeights = map[string]int{
	"viagra":               5,
	"cialis":               5,
	"lottery":              4,
	"winner":               3,
	"congratulations":      2,
	"click here":           3,
	"free money":           5,
	"nigerian prince":      5,
	"inheritance":          4,
	"urgent":               2,
	"act now":              3,
	"limited time":         2,
	"casino":               4,
	"bitcoin":              2,
	"cryptocurrency":       2,
	"investment opportunity": 3,
	"guaranteed":           3,
	"no risk":              4,
	"weight loss":          3,
	"enlarge":              4,
	"unsubscribe":          1,
	"opt out":              1,
	"confirm your account": 2,
	"verify your account":  2,
	"suspended account":    3,
	"unusual activity":     2,
}

// Scorer is a deterministic heuristic spam classifier. It holds only
// compiled patterns and no mutable state; scoring the same message twice
// yields the same verdict.
type Scorer struct {
	patterns []*regexp.Regexp
	sender   []*regexp.Regexp
	url      *regexp.Regexp
	shouting *regexp.Regexp
	caps     *regexp.Regexp
}

// NewScorer compiles the heuristic pattern set.
func NewScorer() *Scorer {
	return &Scorer{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\d{4,}`),        // long digit runs (card numbers etc.)
			regexp.MustCompile(`[$€£¥]\s*\d+`),  // money amounts
			regexp.MustCompile(`https?://\S+`),  // raw URLs
			regexp.MustCompile(`[A-Z]{5,}`),     // EXCESSIVE CAPS
			regexp.MustCompile(`!{3,}`),         // repeated exclamation marks
			regexp.MustCompile(`(?i)click\s+here`),
		},
		sender: []*regexp.Regexp{
			regexp.MustCompile(`(?i)@.*\.ru$`),
			regexp.MustCompile(`(?i)@.*\.cn$`),
			regexp.MustCompile(`(?i)noreply@`),
			regexp.MustCompile(`(?i)admin@`),
			regexp.MustCompile(`(?i)support@[^a-z]`),
			regexp.MustCompile(`\d{5,}`),
			regexp.MustCompile(`(?i)[a-z]{20,}`),
		},
		url:      regexp.MustCompile(`https?://`),
		shouting: regexp.MustCompile(`[!?]{2,}`),
		caps:     regexp.MustCompile(`[A-Z]`),
	}
}

// Score rates the message from 0 (ham) to 100 (certain spam).
func (s *Scorer) Score(msg *core.Message) Verdict {
	subject := msg.Subject
	combined := strings.ToLower(subject + " " + msg.Text)

	score := 0

	for keyword, weight := range keywordWeights {
		score += strings.Count(combined, keyword) * weight
	}

	for _, re := range s.patterns {
		score += len(re.FindAllString(combined, -1)) * 2
	}

	if len(subject) > 10 {
		capsCount := len(s.caps.FindAllString(subject, -1))
		if float64(capsCount)/float64(len(subject)) > 0.5 {
			score += 10
		}
	}

	if s.suspiciousSender(msg.From) {
		score += 15
	}

	if links := len(s.url.FindAllString(combined, -1)); links > 5 {
		score += links * 3
	}

	if len(combined) < 100 {
		score += len(s.shouting.FindAllString(combined, -1)) * 5
	}

	if strings.TrimSpace(subject) == "" {
		score += 5
	}

	if score > 100 {
		score = 100
	}

	return Verdict{
		Score:          score,
		Classification: Classify(score),
		Reason:         reason(score),
	}
}

// suspiciousSender reports whether the sender address matches any of the
// spammy-sender heuristics (suspicious TLDs, generic local parts, long
// digit runs, long random-looking substrings).
func (s *Scorer) suspiciousSender(address string) bool {
	for _, re := range s.sender {
		if re.MatchString(address) {
			return true
		}
	}
	return false
}

// Classify maps a score to its classification band: spam at >= 50,
// suspicious in [30,50), ham below.
func Classify(score int) Classification {
	switch {
	case score >= 50:
		return Spam
	case score >= 30:
		return Suspicious
	default:
		return Ham
	}
}

func reason(score int) string {
	switch {
	case score >= 75:
		return "High spam probability - multiple spam indicators"
	case score >= 50:
		return "Likely spam - contains spam keywords/patterns"
	case score >= 30:
		return "Suspicious - some spam characteristics"
	default:
		return "Appears legitimate"
	}
}
