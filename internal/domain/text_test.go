package domain

import "testing"

func TestNormalizeQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"ideographic space trimmed", "　カレー　", "カレー"},
		{"lowercase", "Curry RICE", "curry rice"},
		{"mixed whitespace compressed", "豚肉 　\t 玉ねぎ", "豚肉 玉ねぎ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeQuery(tt.input); got != tt.want {
				t.Errorf("NormalizeQuery(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsDigits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"1234567", true},
		{"0", true},
		{"", false},
		{"abc", false},
		{"12a", false},
		{"-1", false},
		{"１２", false},
	}

	for _, tt := range tests {
		if got := IsDigits(tt.input); got != tt.want {
			t.Errorf("IsDigits(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsCategoryID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"30", true},
		{"10-275", true},
		{"10-275-516", true},
		{"", false},
		{"10-", false},
		{"10-275-516-1", false},
		{"ten", false},
		{"10 275", false},
	}

	for _, tt := range tests {
		if got := IsCategoryID(tt.input); got != tt.want {
			t.Errorf("IsCategoryID(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
