package service

import "testing"

func TestMatchesHandoffPhrase(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"direct request", "I want to talk to a human", true},
		{"uppercase", "TALK TO A HUMAN NOW", true},
		{"embedded in sentence", "can i please speak to an agent about my refund", true},
		{"real person", "is there a real person I can chat with?", true},
		{"ordinary question", "what are your opening hours?", false},
		{"mentions humans without requesting one", "do humans work here on weekends?", false},
		{"empty", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := matchesHandoffPhrase(tc.message); got != tc.want {
				t.Errorf("matchesHandoffPhrase(%q) = %v, want %v", tc.message, got, tc.want)
			}
		})
	}
}
