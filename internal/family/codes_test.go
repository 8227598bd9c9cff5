package family

import (
	"regexp"
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	shape := regexp.MustCompile(`^FAM-[A-Z0-9]{3}$`)

	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode() error = %v", err)
		}
		if len(code) != 7 {
			t.Fatalf("GenerateCode() = %q, want 7 characters", code)
		}
		if !shape.MatchString(code) {
			t.Fatalf("GenerateCode() = %q, does not match FAM-XXX shape", code)
		}
		if strings.ContainsAny(code[len(CodePrefix):], "IO01") {
			t.Fatalf("GenerateCode() = %q, contains a confusable character", code)
		}
		if !IsValidFormat(code) {
			t.Fatalf("GenerateCode() = %q fails its own format check", code)
		}
	}
}

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "well formed", code: "FAM-XYZ", want: true},
		{name: "digits allowed", code: "FAM-2B9", want: true},
		{name: "missing prefix", code: "ABC123", want: false},
		{name: "prefix only", code: "FAM-", want: false},
		{name: "lowercase rejected", code: "fam-abc", want: false},
		{name: "empty", code: "", want: false},
		{name: "confusable zero", code: "FAM-A0B", want: false},
		{name: "confusable capital o", code: "FAM-AOB", want: false},
		{name: "confusable one", code: "FAM-1AB", want: false},
		{name: "confusable capital i", code: "FAM-IAB", want: false},
		{name: "too long", code: "FAM-ABCD", want: false},
		{name: "trailing space", code: "FAM-ABC ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidFormat(tt.code); got != tt.want {
				t.Errorf("IsValidFormat(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
