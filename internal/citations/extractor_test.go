package citations

import (
	"encoding/json"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want RawFormat
	}{
		{
			name: "sources list",
			raw:  `{"sources":[{"url":"https://g2.com/a","title":"Acme"}]}`,
			want: FormatSources,
		},
		{
			name: "tool results",
			raw:  `{"toolResults":[{"type":"web_search_result","url":"https://g2.com/a"}]}`,
			want: FormatToolResults,
		},
		{
			name: "nested steps",
			raw:  `{"steps":[{"toolCalls":[{"results":[{"url":"https://g2.com/a"}]}]}]}`,
			want: FormatSteps,
		},
		{
			name: "out-of-band citations",
			raw:  `{"citations":["https://g2.com/a"],"response":"Acme is popular."}`,
			want: FormatMetadata,
		},
		{
			name: "grounding metadata",
			raw:  `{"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://g2.com/a"}}]}}`,
			want: FormatGrounding,
		},
		{
			name: "plain text only",
			raw:  `{"response":"See https://g2.com/a for details."}`,
			want: FormatLegacyText,
		},
		{
			name: "nothing recognizable",
			raw:  `{"model":"gpt-4.1","finish_reason":"stop"}`,
			want: FormatUnrecognized,
		},
		{
			name: "invalid json",
			raw:  `{{{`,
			want: FormatUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("DetectFormat() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractSourcesFormat(t *testing.T) {
	raw := json.RawMessage(`{"sources":[
		{"url":"https://g2.com/products/acme","title":"Acme Reviews","snippet":"Acme leads the market.","position":1},
		{"url":"https://capterra.com/p/zenith","title":"Zenith Pricing","snippet":"Zenith offers a free tier.","position":2},
		{"title":"missing url is skipped"}
	]}`)

	cites := Extract("openai", raw, "Acme", []string{"Zenith"})
	if len(cites) != 2 {
		t.Fatalf("got %d citations, want 2", len(cites))
	}

	if cites[0].Source != "g2.com" {
		t.Errorf("domain = %q, want g2.com", cites[0].Source)
	}
	if len(cites[0].MentionedCompanies) != 1 || cites[0].MentionedCompanies[0] != "Acme" {
		t.Errorf("mention enrichment failed: %v", cites[0].MentionedCompanies)
	}
	if len(cites[1].MentionedCompanies) != 1 || cites[1].MentionedCompanies[0] != "Zenith" {
		t.Errorf("competitor enrichment failed: %v", cites[1].MentionedCompanies)
	}
	for _, c := range cites {
		if c.Synthetic {
			t.Errorf("real citation %q must not be tagged synthetic", c.URL)
		}
	}
}

func TestExtractFirstFormatWins(t *testing.T) {
	// Both a sources list and tool results are present; the sources list has
	// priority and the richer tool results must not be consulted.
	raw := json.RawMessage(`{
		"sources":[{"url":"https://g2.com/a","title":"From sources"}],
		"toolResults":[
			{"type":"web_search_result","url":"https://forbes.com/b","title":"From tools"},
			{"type":"web_search_result","url":"https://reuters.com/c","title":"Also from tools"}
		]
	}`)

	cites := Extract("openai", raw, "Acme", nil)
	if len(cites) != 1 {
		t.Fatalf("got %d citations, want 1 (sources format only)", len(cites))
	}
	if cites[0].Title != "From sources" {
		t.Errorf("expected sources-format citation, got %q", cites[0].Title)
	}
}

func TestExtractFiltersRedirectHosts(t *testing.T) {
	raw := json.RawMessage(`{"sources":[
		{"url":"https://vertexaisearch.cloud.google.com/grounding-api-redirect/x","title":"proxy"},
		{"url":"https://g2.com/a","title":"real"}
	]}`)

	cites := Extract("gemini", raw, "Acme", nil)
	if len(cites) != 1 || cites[0].URL != "https://g2.com/a" {
		t.Errorf("redirect host should be filtered, got %v", cites)
	}
}

func TestExtractLegacyTextHarvest(t *testing.T) {
	raw := json.RawMessage(`{"response":"Acme is covered at https://techcrunch.com/acme-story and https://g2.com/products/acme. Logo: https://g2.com/logo.png"}`)

	cites := Extract("anthropic", raw, "Acme", nil)
	if len(cites) != 2 {
		t.Fatalf("got %d citations, want 2 (image link excluded)", len(cites))
	}
	for _, c := range cites {
		if c.Synthetic {
			t.Errorf("harvested citation %q must not be synthetic", c.URL)
		}
	}
}

func TestExtractFallsBackToSamples(t *testing.T) {
	raw := json.RawMessage(`{"model":"gpt-4.1","finish_reason":"stop"}`)

	cites := Extract("openai", raw, "Acme", []string{"Zenith"})
	if len(cites) < 2 || len(cites) > 4 {
		t.Fatalf("fallback should yield 2-4 citations, got %d", len(cites))
	}

	pool := make(map[string]bool)
	for _, domain := range SamplePoolDomains() {
		pool[domain] = true
	}
	for _, c := range cites {
		if !c.Synthetic {
			t.Errorf("fallback citation %q must be tagged synthetic", c.URL)
		}
		if !pool[c.Source] {
			t.Errorf("fallback citation domain %q outside fixed pool", c.Source)
		}
	}

	// Same inputs, same fallback.
	again := Extract("openai", raw, "Acme", []string{"Zenith"})
	if len(again) != len(cites) {
		t.Error("fallback generation must be deterministic per provider+brand")
	}
}

func TestExtractNeverPanicsOnGarbage(t *testing.T) {
	payloads := []string{
		`null`,
		`[]`,
		`"just a string"`,
		`{"sources":"not-an-array"}`,
		`{"steps":[{"toolCalls":null}]}`,
		`{{{`,
	}

	for _, payload := range payloads {
		cites := Extract("openai", json.RawMessage(payload), "Acme", nil)
		if len(cites) == 0 {
			t.Errorf("payload %q: extraction must degrade to fallback, not empty", payload)
		}
	}
}

func TestExtractProviderMetadataFormat(t *testing.T) {
	raw := json.RawMessage(`{
		"response":"Acme and Zenith both appear in recent coverage.",
		"citations":["https://reuters.com/x","https://bloomberg.com/y"]
	}`)

	cites := Extract("perplexity", raw, "Acme", []string{"Zenith"})
	if len(cites) != 2 {
		t.Fatalf("got %d citations, want 2", len(cites))
	}
	if cites[0].URL != "https://reuters.com/x" {
		t.Errorf("citation order should follow the metadata list, got %q", cites[0].URL)
	}
	if cites[0].Position != 1 || cites[1].Position != 2 {
		t.Errorf("positions should default to list order, got %d, %d", cites[0].Position, cites[1].Position)
	}
}
