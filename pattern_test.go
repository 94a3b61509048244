package webproxy

import (
	"errors"
	"testing"
)

func TestApplyPatterns_Email(t *testing.T) {
	pt := ApplyPatterns("Contact us at support@example.com today", PatternSegment)

	if pt.Normalized != "Contact us at [E1] today" {
		t.Errorf("Unexpected normalized text: %q", pt.Normalized)
	}
	if len(pt.Replacements) != 1 {
		t.Fatalf("Expected 1 replacement, got %d", len(pt.Replacements))
	}
	rep := pt.Replacements[0]
	if rep.Pattern != "email" || len(rep.Values) != 1 || rep.Values[0] != "support@example.com" {
		t.Errorf("Unexpected replacement: %+v", rep)
	}
}

func TestApplyPatterns_URLPrecedence(t *testing.T) {
	// An email embedded in a URL query must be captured as part of the URL.
	pt := ApplyPatterns("Link: https://example.com/contact?email=user@test.com", PatternSegment)

	if len(pt.Replacements) != 1 {
		t.Fatalf("Expected 1 replacement, got %d: %+v", len(pt.Replacements), pt.Replacements)
	}
	if pt.Replacements[0].Pattern != "url" {
		t.Errorf("Expected url replacement, got %q", pt.Replacements[0].Pattern)
	}
	if pt.Normalized != "Link: [U1]" {
		t.Errorf("Unexpected normalized text: %q", pt.Normalized)
	}
}

func TestApplyPatterns_URLTrailingPunctuation(t *testing.T) {
	pt := ApplyPatterns("See https://example.com/docs. Then continue.", PatternSegment)

	if pt.Normalized != "See [U1]. Then continue." {
		t.Errorf("Unexpected normalized text: %q", pt.Normalized)
	}
	if pt.Replacements[0].Values[0] != "https://example.com/docs" {
		t.Errorf("Trailing punctuation not stripped: %q", pt.Replacements[0].Values[0])
	}
}

func TestApplyPatterns_EmailBeforeNumeric(t *testing.T) {
	pt := ApplyPatterns("Mail user42@test.com or call 555", PatternSegment)

	if pt.Normalized != "Mail [E1] or call [N1]" {
		t.Errorf("Unexpected normalized text: %q", pt.Normalized)
	}
}

func TestApplyPatterns_UUID(t *testing.T) {
	pt := ApplyPatterns("Order 3f2b6a1c-0d4e-4a9b-8c7d-112233445566 shipped", PatternSegment)

	if pt.Normalized != "Order [I1] shipped" {
		t.Errorf("Unexpected normalized text: %q", pt.Normalized)
	}
}

func TestApplyPatterns_MultipleNumbers(t *testing.T) {
	pt := ApplyPatterns("3 of 12 results, page 1.5", PatternSegment)

	if pt.Normalized != "[N1] of [N2] results, page [N3]" {
		t.Errorf("Unexpected normalized text: %q", pt.Normalized)
	}
	values := pt.Replacements[0].Values
	if len(values) != 3 || values[0] != "3" || values[1] != "12" || values[2] != "1.5" {
		t.Errorf("Unexpected values: %v", values)
	}
}

func TestApplyPatterns_KeepsInlineMarkupTokens(t *testing.T) {
	pt := ApplyPatterns("Visit [HA1]our team[/HA1] today", PatternSegment)

	if pt.Normalized != "Visit [HA1]our team[/HA1] today" {
		t.Errorf("Unexpected normalized text: %q", pt.Normalized)
	}
	if len(pt.Replacements) != 0 {
		t.Errorf("Unexpected replacements: %v", pt.Replacements)
	}
}

func TestApplyPatterns_NumbersAroundInlineMarkupTokens(t *testing.T) {
	pt := ApplyPatterns("[HB1]3 items[/HB1] for 19.99", PatternSegment)

	if pt.Normalized != "[HB1][N1] items[/HB1] for [N2]" {
		t.Errorf("Unexpected normalized text: %q", pt.Normalized)
	}
	values := pt.Replacements[0].Values
	if len(values) != 2 || values[0] != "3" || values[1] != "19.99" {
		t.Errorf("Unexpected values: %v", values)
	}
}

func TestApplyPatterns_PathContextSkipsURL(t *testing.T) {
	pt := ApplyPatterns("/blog/2024/post-7", PatternPath)

	if pt.Normalized != "/blog/[N1]/post-[N2]" {
		t.Errorf("Unexpected normalized text: %q", pt.Normalized)
	}
	for _, rep := range pt.Replacements {
		if rep.Pattern == "url" {
			t.Error("URL pattern must not run in path context")
		}
	}
}

func TestRestorePatterns_RoundTrip(t *testing.T) {
	inputs := []string{
		"Contact support@example.com or visit https://example.com/help?id=42.",
		"Order 3f2b6a1c-0d4e-4a9b-8c7d-112233445566: 3 items, total 19.99",
		"Plain text with no patterns at all",
		"ALL CAPS WITH 42 NUMBERS",
		"",
		"https://a.io, https://b.io!",
	}

	for _, in := range inputs {
		pt := ApplyPatterns(in, PatternSegment)
		out, err := RestorePatterns(pt.Normalized, pt.Replacements, pt.IsUpperCase)
		if err != nil {
			t.Fatalf("RestorePatterns(%q): %v", in, err)
		}
		if out != in {
			t.Errorf("Round trip failed:\n  in:  %q\n  out: %q\n  norm: %q", in, out, pt.Normalized)
		}
	}
}

func TestRestorePatterns_Uppercase(t *testing.T) {
	out, err := RestorePatterns("total: [N1] items", []PatternReplacement{
		{Pattern: "numeric", Placeholder: "[N", Values: []string{"42"}},
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	if out != "TOTAL: 42 ITEMS" {
		t.Errorf("Expected 'TOTAL: 42 ITEMS', got %q", out)
	}
}

func TestRestorePatterns_EmptyReplacements(t *testing.T) {
	out, err := RestorePatterns("hello there", nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if out != "HELLO THERE" {
		t.Errorf("Case restoration must still apply, got %q", out)
	}
}

func TestRestorePatterns_UnknownPattern(t *testing.T) {
	_, err := RestorePatterns("x [Z1]", []PatternReplacement{
		{Pattern: "zebra", Placeholder: "[Z", Values: []string{"y"}},
	}, false)

	var perr *PatternError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected PatternError, got %v", err)
	}
}

func TestRestorePatterns_UnresolvedTokenLeftAsIs(t *testing.T) {
	out, err := RestorePatterns("count [N2]", []PatternReplacement{
		{Pattern: "numeric", Placeholder: "[N", Values: []string{"1"}},
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if out != "count [N2]" {
		t.Errorf("Unresolved token must pass through, got %q", out)
	}
}

func TestIsAllUpper(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"HELLO", true},
		{"HELLO 42!", true},
		{"Hello", false},
		{"1234", false},
		{"", false},
		{"ÜBER", true},
	}
	for _, c := range cases {
		if got := isAllUpper(c.in); got != c.want {
			t.Errorf("isAllUpper(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
