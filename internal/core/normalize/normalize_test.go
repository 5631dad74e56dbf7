package normalize

import "testing"

func TestNormalize_Table(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"identity ascii", "org.apache.commons", "org.apache.commons"},
		{"empty", "", ""},
		{"trims", "  junit \t", "junit"},
		{"drops controls", "com.\x00exa\x1bmple\x7f", "com.example"},
		{"drops line breaks", "1.0\n-SNAPSHOT\r", "1.0-SNAPSHOT"},
		{"drops invalid utf8", string([]byte{0xff, 'a', 'p', 'i', 0x80}), "api"},
		{"drops c1 controls", "lib\u0085core", "libcore"},
		{"removes zero widths", "spr\u200bing\ufeff", "spring"},
		{"composes to nfc", "cafe\u0301", "caf\u00e9"},
		{"only whitespace", " \t\n ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.Normalize(tc.in); got != tc.out {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.out)
			}
		})
	}
}

func TestCoordinate(t *testing.T) {
	n := New()

	g, a, v, ok := n.Coordinate(" org.slf4j", "slf4j-api ", "2.0.9\n")
	if !ok || g != "org.slf4j" || a != "slf4j-api" || v != "2.0.9" {
		t.Fatalf("Coordinate = %q %q %q %v", g, a, v, ok)
	}

	if _, _, _, ok := n.Coordinate("org.slf4j", "\u200b", "1"); ok {
		t.Fatalf("empty artifact after normalization must not be ok")
	}
	if _, _, _, ok := n.Coordinate("", "a", "1"); ok {
		t.Fatalf("empty group must not be ok")
	}
}

func TestSanitize_FastPathReturnsInput(t *testing.T) {
	s := "com.google.guava"
	if got := Sanitize(s); got != s {
		t.Fatalf("Sanitize changed clean input: %q", got)
	}
}

func TestNormalize_Concurrent(t *testing.T) {
	n := New()
	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 200 {
				if n.Normalize("cafe\u0301") != "caf\u00e9" {
					t.Errorf("concurrent normalize mismatch")
					return
				}
			}
		}()
	}
	for range 8 {
		<-done
	}
}
