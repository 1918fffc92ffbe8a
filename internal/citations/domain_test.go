package citations

import "testing"

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://www.g2.com/products/acme/reviews", "g2.com"},
		{"https://g2.com/a", "g2.com"},
		{"http://blog.example.com/post/1", "example.com"},
		{"https://TechCrunch.com/2026/01/story", "techcrunch.com"},
		{"not a url", "not a url"}, // fallback: unchanged
		{"", ""},
		{"ftp://files.example.com/x", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ExtractDomain(tt.input); got != tt.want {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractDomainNeverPanics(t *testing.T) {
	inputs := []string{"://broken", "http://", "%%%", "javascript:alert(1)"}
	for _, input := range inputs {
		_ = ExtractDomain(input) // must not panic
	}
}

func TestIsRedirectURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://vertexaisearch.cloud.google.com/grounding-api-redirect/abc", true},
		{"https://gateway.bing.com/r?u=xyz", true},
		{"https://www.google.com/url?q=https://example.com", true},
		{"https://google.com/url?q=https://example.com", true},
		{"https://example.com/url-shortener", false},
		{"https://g2.com/a", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsRedirectURL(tt.input); got != tt.want {
				t.Errorf("IsRedirectURL(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
