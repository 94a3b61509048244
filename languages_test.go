package webproxy

import "testing"

func TestGetLanguageName(t *testing.T) {
	if name := GetLanguageName("es_ES"); name != "Spanish (Spain)" {
		t.Errorf("Expected 'Spanish (Spain)', got %q", name)
	}
	if name := GetLanguageName("ja"); name != "Japanese (Japan)" {
		t.Errorf("Short code expansion failed, got %q", name)
	}
	if name := GetLanguageName("xx_XX"); name != "xx_XX" {
		t.Errorf("Unknown code must fall back to itself, got %q", name)
	}
}

func TestGetDirection(t *testing.T) {
	if dir := GetDirection("ar_SA"); dir != "rtl" {
		t.Errorf("Expected rtl for ar_SA, got %q", dir)
	}
	if dir := GetDirection("fr_FR"); dir != "ltr" {
		t.Errorf("Expected ltr for fr_FR, got %q", dir)
	}
	if !IsRTL("he_IL") {
		t.Error("he_IL should be RTL")
	}
}

func TestToHTMLLang(t *testing.T) {
	if got := ToHTMLLang("es_ES"); got != "es-ES" {
		t.Errorf("Expected 'es-ES', got %q", got)
	}
	if got := NormalizeLocale("es-ES"); got != "es_ES" {
		t.Errorf("Expected 'es_ES', got %q", got)
	}
}

func TestSameLanguage(t *testing.T) {
	if !SameLanguage("en_US", "en-GB") {
		t.Error("en_US and en-GB share a base language")
	}
	if SameLanguage("en_US", "es_ES") {
		t.Error("en_US and es_ES do not share a base language")
	}
}
