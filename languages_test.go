package tlcache

import "testing"

func TestGetLanguageName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"es_ES", "Spanish (Spain)"},
		{"ja_JP", "Japanese (Japan)"},
		{"pt-BR", "Portuguese (Brazil)"}, // hyphenated
		{"en-gb", "English (United Kingdom)"},
		{"en", "English (United States)"}, // short code expansion
		{"DE", "German (Germany)"},
		{"unknown", "unknown"}, // fallback
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetLanguageName(tt.code)
			if result != tt.expected {
				t.Errorf("GetLanguageName(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestNormalizeLocale(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"es-ES", "es_ES"},
		{"en-us", "en_US"},
		{"es_ES", "es_ES"}, // already normalized
		{"FR", "fr"},
		{" it ", "it"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeLocale(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeLocale(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestShortCodesResolve(t *testing.T) {
	for short, locale := range ShortCodeToLocale {
		if _, ok := LanguageNames[locale]; !ok {
			t.Errorf("short code %q maps to unknown locale %q", short, locale)
		}
	}
}
