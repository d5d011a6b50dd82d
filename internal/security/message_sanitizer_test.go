package security

import "testing"

func TestSanitize_PlainTextPassesThrough(t *testing.T) {
	s := NewMessageSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii text", "hello world", "hello world"},
		{"japanese text", "こんにちは", "こんにちは"},
		{"empty string", "", ""},
		{"numbers and punctuation", "v1.2.3 released!", "v1.2.3 released!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_StripsAllTags(t *testing.T) {
	s := NewMessageSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"script tag", "<script>alert(1)</script>hello", "hello"},
		{"bold tag", "<b>hi</b>", "hi"},
		{"img tag", `<img src="https://example.com/x.png">check this`, "check this"},
		{"nested tags", "<div><p>text</p></div>", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_TrimsWhitespace(t *testing.T) {
	s := NewMessageSanitizer()

	if got := s.Sanitize("  hello  "); got != "hello" {
		t.Errorf("Sanitize = %q, want %q", got, "hello")
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	s := NewMessageSanitizer()

	once := s.Sanitize("<b>hello</b> world")
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("Sanitize not idempotent: first %q, second %q", once, twice)
	}
}
