// internal/citations/extractor.go
package citations

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"mvdan.cc/xurls/v2"

	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
)

// RawFormat identifies which of the known provider response shapes a raw
// payload carries. Formats are probed in declaration order and the first one
// that yields at least one citation wins; later formats are not attempted
// even if they would have been richer.
type RawFormat int

const (
	FormatUnrecognized RawFormat = iota
	FormatSources                // structured "sources" list
	FormatToolResults            // flat web-search tool-call result array
	FormatSteps                  // nested steps of tool calls
	FormatMetadata               // out-of-band citations list + optional search_results
	FormatGrounding              // search-grounding metadata (Gemini-style)
	FormatLegacyText             // no citation fields at all; harvest URLs from the text
)

func (f RawFormat) String() string {
	switch f {
	case FormatSources:
		return "sources"
	case FormatToolResults:
		return "tool_results"
	case FormatSteps:
		return "steps"
	case FormatMetadata:
		return "metadata"
	case FormatGrounding:
		return "grounding"
	case FormatLegacyText:
		return "legacy_text"
	default:
		return "unrecognized"
	}
}

// rawSource is the defensive decoding of one candidate citation; every field
// may be absent.
type rawSource struct {
	URL                string   `json:"url"`
	URI                string   `json:"uri"` // some payloads use uri instead of url
	Title              string   `json:"title"`
	Snippet            string   `json:"snippet"`
	Text               string   `json:"text"`
	Date               string   `json:"date"`
	Position           int      `json:"position"`
	MentionedCompanies []string `json:"mentionedCompanies"`
}

func (s rawSource) url() string {
	if s.URL != "" {
		return s.URL
	}
	return s.URI
}

func (s rawSource) snippet() string {
	if s.Snippet != "" {
		return s.Snippet
	}
	return s.Text
}

type rawToolResult struct {
	Type string `json:"type"`
	rawSource
	Results []rawSource `json:"results"`
}

type rawStep struct {
	ToolCalls []rawToolCall `json:"toolCalls"`
}

type rawToolCall struct {
	Results []rawSource `json:"results"`
	Result  *rawSource  `json:"result"`
}

type rawGroundingChunk struct {
	Web *rawSource `json:"web"`
}

type rawGrounding struct {
	GroundingChunks []rawGroundingChunk `json:"groundingChunks"`
}

// rawEnvelope is the union of every response shape the extractor knows how
// to read. Unknown providers decode into the zero value and fall through to
// the legacy text harvest.
type rawEnvelope struct {
	Sources           []rawSource     `json:"sources"`
	ToolResults       []rawToolResult `json:"toolResults"`
	Steps             []rawStep       `json:"steps"`
	Citations         []string        `json:"citations"`
	SearchResults     []rawSource     `json:"search_results"`
	GroundingMetadata *rawGrounding   `json:"groundingMetadata"`
	Text              string          `json:"text"`
	Response          string          `json:"response"`
}

// DetectFormat reports which known shape a raw provider payload decodes to,
// without extracting anything.
func DetectFormat(raw json.RawMessage) RawFormat {
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return FormatUnrecognized
	}
	switch {
	case len(env.Sources) > 0:
		return FormatSources
	case len(env.ToolResults) > 0:
		return FormatToolResults
	case len(env.Steps) > 0:
		return FormatSteps
	case len(env.Citations) > 0 || len(env.SearchResults) > 0:
		return FormatMetadata
	case env.GroundingMetadata != nil && len(env.GroundingMetadata.GroundingChunks) > 0:
		return FormatGrounding
	case env.Text != "" || env.Response != "":
		return FormatLegacyText
	default:
		return FormatUnrecognized
	}
}

// Extract normalizes one provider's raw response into citations. It never
// fails: malformed payloads, unknown shapes, and internal panics all degrade
// to the synthetic fallback set so downstream aggregation always has data to
// work with. Fallback citations are tagged Synthetic.
func Extract(providerName string, raw json.RawMessage, brandName string, competitorNames []string) (result []models.Citation) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Extract] ⚠️ Recovered from extraction panic for provider %s: %v\n", providerName, r)
			result = SampleCitations(SampleSeed(providerName, brandName), brandName, competitorNames)
		}
	}()

	result = extractKnownFormats(raw, brandName, competitorNames)
	if len(result) == 0 {
		fmt.Printf("[Extract] No citations found in %s response, generating fallback sample set\n", providerName)
		result = SampleCitations(SampleSeed(providerName, brandName), brandName, competitorNames)
	}
	return result
}

// extractKnownFormats probes the format union in priority order and stops at
// the first format yielding at least one citation.
func extractKnownFormats(raw json.RawMessage, brandName string, competitorNames []string) []models.Citation {
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		fmt.Printf("[extractKnownFormats] ⚠️ Failed to decode raw response: %v\n", err)
		return nil
	}

	probes := []func(rawEnvelope) []rawSource{
		extractSources,
		extractToolResults,
		extractSteps,
		extractMetadata,
		extractGrounding,
		extractLegacyText,
	}

	for _, probe := range probes {
		candidates := probe(env)
		cites := normalize(candidates, brandName, competitorNames)
		if len(cites) > 0 {
			return cites
		}
	}
	return nil
}

func extractSources(env rawEnvelope) []rawSource {
	return env.Sources
}

func extractToolResults(env rawEnvelope) []rawSource {
	var out []rawSource
	for _, tr := range env.ToolResults {
		if len(tr.Results) > 0 {
			out = append(out, tr.Results...)
			continue
		}
		if tr.url() != "" {
			out = append(out, tr.rawSource)
		}
	}
	return out
}

func extractSteps(env rawEnvelope) []rawSource {
	var out []rawSource
	for _, step := range env.Steps {
		for _, call := range step.ToolCalls {
			out = append(out, call.Results...)
			if call.Result != nil {
				out = append(out, *call.Result)
			}
		}
	}
	return out
}

func extractMetadata(env rawEnvelope) []rawSource {
	// search_results rows carry titles/snippets; the citations list is bare
	// URLs. Prefer the richer rows, fall back to the bare list.
	if len(env.SearchResults) > 0 {
		return env.SearchResults
	}
	out := make([]rawSource, 0, len(env.Citations))
	for _, u := range env.Citations {
		out = append(out, rawSource{URL: u})
	}
	return out
}

func extractGrounding(env rawEnvelope) []rawSource {
	if env.GroundingMetadata == nil {
		return nil
	}
	var out []rawSource
	for _, chunk := range env.GroundingMetadata.GroundingChunks {
		if chunk.Web != nil && chunk.Web.url() != "" {
			out = append(out, *chunk.Web)
		}
	}
	return out
}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp"}

func extractLegacyText(env rawEnvelope) []rawSource {
	text := env.Text
	if text == "" {
		text = env.Response
	}
	if text == "" {
		return nil
	}

	var out []rawSource
	seen := make(map[string]bool)
	for _, match := range xurls.Strict().FindAllString(text, -1) {
		u := strings.TrimRight(strings.TrimSpace(match), "/.,)")
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true

		pathLower := strings.ToLower(u)
		isImage := false
		for _, ext := range imageExtensions {
			if strings.HasSuffix(pathLower, ext) {
				isImage = true
				break
			}
		}
		if isImage {
			continue
		}
		out = append(out, rawSource{URL: u})
	}
	return out
}

// normalize converts raw candidates into Citations: defensive defaults,
// domain derivation, redirect-host filtering, and mention enrichment for
// candidates that did not arrive with mentionedCompanies set. Enrichment
// only looks at the citation's own title+snippet, not the full response.
func normalize(candidates []rawSource, brandName string, competitorNames []string) []models.Citation {
	var cites []models.Citation
	for _, c := range candidates {
		rawURL := strings.TrimSpace(c.url())
		if rawURL == "" {
			continue
		}

		parsed, err := url.Parse(rawURL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			continue
		}
		if IsRedirectURL(rawURL) {
			continue
		}

		citation := models.Citation{
			URL:                rawURL,
			Title:              c.Title,
			Snippet:            c.snippet(),
			Source:             ExtractDomain(rawURL),
			Date:               c.Date,
			Position:           c.Position,
			MentionedCompanies: c.MentionedCompanies,
		}
		if citation.Position == 0 {
			citation.Position = len(cites) + 1
		}
		if len(citation.MentionedCompanies) == 0 {
			citation.MentionedCompanies = DetectMentions(
				citation.Title+" "+citation.Snippet, brandName, competitorNames)
		}

		cites = append(cites, citation)
	}
	return cites
}
