package normalize

import (
	"reflect"
	"testing"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "collapses whitespace", input: "  Data   Science\tfrom\nScratch ", expected: "data science from scratch"},
		{name: "lowercases unicode", input: "ÉTICA Y Ñandú", expected: "ética y ñandú"},
		{name: "blank stays empty", input: "   ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Title(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{input: " EN ", expected: "en", ok: true},
		{input: "pt-BR", expected: "pt-br", ok: true},
		{input: "english", expected: "english", ok: true},
		{input: "   ", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, ok := Language(tt.input)
			if ok != tt.ok || result != tt.expected {
				t.Errorf("Expected (%q, %v), got (%q, %v)", tt.expected, tt.ok, result, ok)
			}
		})
	}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{input: " usd ", expected: "USD", ok: true},
		{input: "Eur", expected: "EUR", ok: true},
		{input: "dollars", expected: "DOLLARS", ok: true},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, ok := Currency(tt.input)
			if ok != tt.ok || result != tt.expected {
				t.Errorf("Expected (%q, %v), got (%q, %v)", tt.expected, tt.ok, result, ok)
			}
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "year only", input: "2015", expected: "2015-01-01", ok: true},
		{name: "year month", input: "2015-04", expected: "2015-04-01", ok: true},
		{name: "full date", input: "2015-04-07", expected: "2015-04-07", ok: true},
		{name: "padded", input: " 2019-11-05 ", expected: "2019-11-05", ok: true},
		{name: "slashed", input: "2019/11/05", expected: "2019-11-05", ok: true},
		{name: "us style", input: "11/05/2019", expected: "2019-11-05", ok: true},
		{name: "month name", input: "April 2015", expected: "2015-04-01", ok: true},
		{name: "timestamp", input: "2015-04-07T10:30:00Z", expected: "2015-04-07", ok: true},
		{name: "impossible day", input: "2015-02-30", ok: false},
		{name: "garbage", input: "someday", ok: false},
		{name: "blank", input: "  ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := Date(tt.input)
			if ok != tt.ok || result != tt.expected {
				t.Errorf("Expected (%q, %v), got (%q, %v)", tt.expected, tt.ok, result, ok)
			}
		})
	}
}

func TestYear(t *testing.T) {
	year, ok := Year("2015-04-07")
	if !ok || year != 2015 {
		t.Errorf("Expected 2015, got %d (ok=%v)", year, ok)
	}

	if _, ok := Year(""); ok {
		t.Error("Expected empty date to have no year")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "two authors", input: "Joel Grus| Wes McKinney ", expected: []string{"Joel Grus", "Wes McKinney"}},
		{name: "drops empty tokens", input: "|Computers||  |Science|", expected: []string{"Computers", "Science"}},
		{name: "empty input", input: "", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SplitList(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestKey(t *testing.T) {
	if got := Key("  O'Reilly Media "); got != "o'reilly media" {
		t.Errorf("Expected %q, got %q", "o'reilly media", got)
	}
}
