package attempt

import "testing"

type stubDetector struct{ nonsense bool }

func (d stubDetector) IsNonsense(string) bool { return d.nonsense }

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "whitespace only", text: "   \t\n", want: 0},
		{name: "single word", text: "because", want: 1},
		{name: "sentence", text: "the answer is four because two plus two", want: 8},
		{name: "extra spacing", text: "  two   words  ", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountWords(tt.text); got != tt.want {
				t.Errorf("CountWords(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestGateCheck(t *testing.T) {
	tests := []struct {
		name     string
		minWords int
		detector NonsenseDetector
		text     string
		want     bool
	}{
		{
			name:     "clears the bar",
			minWords: 3,
			text:     "I think it is seven",
			want:     true,
		},
		{
			name:     "too short",
			minWords: 5,
			text:     "seven",
			want:     false,
		},
		{
			name:     "nonsense rejected",
			minWords: 2,
			detector: stubDetector{nonsense: true},
			text:     "asdf jkl qwerty zxcv",
			want:     false,
		},
		{
			name:     "nil detector skips heuristic",
			minWords: 2,
			text:     "asdf jkl qwerty zxcv",
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(tt.minWords, tt.detector)
			res := gate.Check(tt.text)
			if res.Allowed != tt.want {
				t.Errorf("Check(%q) allowed = %v, want %v (reason %q)", tt.text, res.Allowed, tt.want, res.Reason)
			}
			if !res.Allowed && res.Reason == "" {
				t.Error("rejected attempt should carry a reason")
			}
		})
	}
}

func TestNewGateDefaultFloor(t *testing.T) {
	gate := NewGate(0, nil)
	if gate.MinWords != DefaultMinWords {
		t.Errorf("MinWords = %d, want default %d", gate.MinWords, DefaultMinWords)
	}
}
