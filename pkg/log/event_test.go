package log

import "testing"

func TestSourceString(t *testing.T) {
	tests := []struct {
		s    Source
		want string
	}{
		{SourceCLI, "CLI"},
		{SourceWeb, "WEB"},
		{SourceShell, "SHELL"},
		{Source(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Source(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		c    Category
		want string
	}{
		{CategoryParse, "PARSE"},
		{CategoryDiff, "DIFF"},
		{CategoryError, "ERROR"},
		{Category(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"parse", CategoryParse, true},
		{"DIFF", CategoryDiff, true},
		{"Error", CategoryError, true},
		{"state", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseCategory(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
