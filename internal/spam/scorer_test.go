package spam

import (
	"testing"

	"github.com/mazzlabs/mailworks/internal/core"
)

func TestScoreHam(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	v := s.Score(&core.Message{
		From:    "alice@example.com",
		Subject: "Lunch plans",
		Text:    "Shall we get lunch tomorrow at noon?",
	})

	if v.Score != 0 {
		t.Errorf("expected score 0, got %d", v.Score)
	}
	if v.Classification != Ham {
		t.Errorf("expected ham, got %s", v.Classification)
	}
}

func TestScoreSpam(t *testing.T) {
	t.Parallel()

	// Empty subject, keyword hits, six URLs and shouting in a short body
	// push the score past the spam threshold.
	s := NewScorer()
	v := s.Score(&core.Message{
		From: "friend@example.com",
		Text: "WIN THE LOTTERY!!! http://a http://b http://c http://d http://e http://f CLICK HERE",
	})

	if v.Score < 50 {
		t.Errorf("expected score >= 50, got %d", v.Score)
	}
	if v.Classification != Spam {
		t.Errorf("expected spam, got %s", v.Classification)
	}
}

func TestScoreSuspicious(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	v := s.Score(&core.Message{
		From:    "noreply@spam.example.com",
		Subject: "You won",
		Text:    "Congratulations winner! Click here to claim your lottery inheritance",
	})

	if v.Classification != Suspicious {
		t.Errorf("expected suspicious, got %s (score %d)", v.Classification, v.Score)
	}
}

func TestScoreSuspiciousSender(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	tests := []struct {
		address    string
		suspicious bool
	}{
		{"spammer@mail.example.ru", true},
		{"noreply@example.com", true},
		{"admin@example.com", true},
		{"user12345678@example.com", true},
		{"alice@example.com", false},
		{"bob.smith@mazzlabs.works", false},
	}
	for _, tt := range tests {
		v := s.Score(&core.Message{From: tt.address, Subject: "Hello there", Text: "Just checking in."})
		got := v.Score >= 15
		if got != tt.suspicious {
			t.Errorf("sender %q: suspicious = %v, want %v (score %d)", tt.address, got, tt.suspicious, v.Score)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	msg := &core.Message{
		From:    "winner-notify@lottery.example.cn",
		Subject: "URGENT: claim your FREE MONEY now!!!",
		Text:    "Click here http://spam.example.com to claim $10000 guaranteed no risk",
	}

	first := s.Score(msg)
	for i := 0; i < 5; i++ {
		if v := s.Score(msg); v != first {
			t.Fatalf("scoring is not deterministic: %+v != %+v", v, first)
		}
	}
}

func TestScoreClamped(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	text := ""
	for i := 0; i < 50; i++ {
		text += "viagra free money nigerian prince lottery winner http://x "
	}
	v := s.Score(&core.Message{From: "noreply@scam.example.ru", Text: text})

	if v.Score != 100 {
		t.Errorf("expected clamped score 100, got %d", v.Score)
	}
	if v.Classification != Spam {
		t.Errorf("expected spam, got %s", v.Classification)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  Classification
	}{
		{0, Ham},
		{29, Ham},
		{30, Suspicious},
		{49, Suspicious},
		{50, Spam},
		{100, Spam},
	}
	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
