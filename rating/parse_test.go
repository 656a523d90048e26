package rating

import "testing"

func TestParseCount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "plain", input: "42", want: 42},
		{name: "thousands separator", input: "1,234", want: 1234},
		{name: "millions", input: "1,234,567", want: 1234567},
		{name: "padded", input: " 7 ", want: 7},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "n/a", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCount(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseCount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeSize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
		ok    bool
	}{
		{name: "megabytes", input: "4.2M", want: 4200000, ok: true},
		{name: "lowercase kilobytes", input: "8.5k", want: 8500, ok: true},
		{name: "gigabytes", input: "1G", want: 1000000000, ok: true},
		{name: "terabytes", input: "0.5T", want: 500000000000, ok: true},
		{name: "fractional rounding", input: "2.3M", want: 2300000, ok: true},
		{name: "varies with device", input: "Varies with device", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "bare number", input: "42", ok: false},
		{name: "suffix only", input: "M", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeSize(tt.input)
			if ok != tt.ok {
				t.Fatalf("DecodeSize(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("DecodeSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestPhraseFrequencies(t *testing.T) {
	reviews := []string{
		"Great app but it crashed today",
		"crash Crash CRASH",
	}
	// "crashed" contains "crash", so 1 + 3 occurrences over 9 words
	freqs := PhraseFrequencies(reviews, []string{"crash", "battery"})
	if freqs == nil {
		t.Fatalf("expected frequencies for non-empty reviews")
	}
	if got := freqs["crash"]; got != 4.0/9.0 {
		t.Errorf("crash frequency = %v, want %v", got, 4.0/9.0)
	}
	if got := freqs["battery"]; got != 0 {
		t.Errorf("battery frequency = %v, want 0", got)
	}
}

func TestPhraseFrequenciesNoReviews(t *testing.T) {
	if freqs := PhraseFrequencies(nil, []string{"crash"}); freqs != nil {
		t.Fatalf("zero reviews must omit the frequency section, got %v", freqs)
	}
	if freqs := PhraseFrequencies([]string{"", "   "}, []string{"crash"}); freqs != nil {
		t.Fatalf("reviews without words must omit the frequency section, got %v", freqs)
	}
}

func TestCategorySlug(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{href: "/store/apps/category/TOOLS", want: "tools"},
		{href: "/store/apps/category/GAME_PUZZLE/", want: "game_puzzle"},
		{href: "COMMUNICATION", want: "communication"},
	}

	for _, tt := range tests {
		if got := categorySlug(tt.href); got != tt.want {
			t.Errorf("categorySlug(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}
