// internal/citations/mentions.go
package citations

import (
	"fmt"
	"regexp"
	"strings"
)

// corporateSuffixRe matches legal/corporate name suffixes so that
// "Ford Motor Company" can also be recognized as plain "Ford".
var corporateSuffixRe = regexp.MustCompile(`(?i)\s+(?:motor\s+)?(?:company|corporation|corp\.?|incorporated|inc\.?|limited|ltd\.?|llc|co\.?)$`)

// DetectMentions scans free text for references to the brand and the tracked
// competitors. The returned names are a subset of the candidates, in
// candidate order (brand first, then competitors as supplied).
//
// Matching tolerates spacing/punctuation and corporate-suffix variants: a
// candidate hits when its full name appears on a word boundary, when its
// suffix-stripped core name appears on a word boundary, or when its first
// token (if longer than 3 characters) appears on a word boundary. Candidates
// whose first token is 3 characters or shorter are only matched by a direct
// case-insensitive substring test of the full name; boundary heuristics on
// tokens that short produce too many false hits to be worth it.
func DetectMentions(text, brandName string, competitorNames []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	candidates := make([]string, 0, len(competitorNames)+1)
	candidates = append(candidates, brandName)
	candidates = append(candidates, competitorNames...)

	var mentioned []string
	seen := make(map[string]bool)
	for _, name := range candidates {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		if nameMentioned(text, name) {
			mentioned = append(mentioned, name)
			seen[name] = true
		}
	}
	return mentioned
}

func nameMentioned(text, name string) bool {
	firstToken := name
	if idx := strings.IndexAny(name, " \t"); idx > 0 {
		firstToken = name[:idx]
	}

	// Short first tokens ("Go", "3M", "BMW") only get the exact full-name
	// substring test; anything looser matches inside unrelated words.
	if len(firstToken) <= 3 {
		return strings.Contains(strings.ToLower(text), strings.ToLower(name))
	}

	if boundaryMatch(text, name) {
		return true
	}

	// Corporate-suffix variant: "Ford Motor Company" should hit on "Ford",
	// "Acme Widgets Inc" on "Acme Widgets".
	if corporateSuffixRe.MatchString(name) {
		core := strings.TrimSpace(corporateSuffixRe.ReplaceAllString(name, ""))
		words := strings.Fields(core)
		if len(words) > 2 {
			words = words[:2]
		}
		if len(words) > 0 && boundaryMatch(text, strings.Join(words, " ")) {
			return true
		}
	}

	return boundaryMatch(text, firstToken)
}

func boundaryMatch(text, name string) bool {
	re, err := regexp.Compile(fmt.Sprintf(`(?i)\b%s\b`, regexp.QuoteMeta(name)))
	if err != nil {
		return false
	}
	return re.MatchString(text)
}
