package contentfilter

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	startConfidence      = 100
	flaggedTermPenalty   = 20
	urlPenalty           = 15
	capsRunPenalty       = 10
	excessiveCapsRatio   = 0.3
	excessiveSpecialRate = 0.2
	maxURLs              = 2
)

const urlExpr = `https?://\S+`

var (
	urlPattern     = regexp.MustCompile(urlExpr)
	capsRunPattern = regexp.MustCompile(`\p{Lu}{3,}`)
)

const (
	SuggestionSpam         = "Please avoid promotional or spam-like content"
	SuggestionFake         = "Please ensure your content is authentic and truthful"
	SuggestionCommercial   = "This platform is for sharing miracles and prayer requests, not commercial activities"
	SuggestionFinancial    = "Please avoid financial opportunity content"
	SuggestionRealEstate   = "Please avoid real estate or investment content"
	SuggestionContactInfo  = "Please avoid including contact information or promotional links"
	SuggestionCaps         = "Please avoid using excessive capital letters"
	SuggestionSpecialChars = "Please reduce the use of special characters"
	SuggestionURLs         = "Please limit the number of links in your content"
)

type Verdict struct {
	IsAppropriate         bool     `json:"is_appropriate"`
	Confidence            int      `json:"confidence"`
	FlaggedTerms          []string `json:"flagged_terms"`
	Suggestions           []string `json:"suggestions"`
	RequiresReview        bool     `json:"requires_review"`
	HasSuspiciousPatterns bool     `json:"has_suspicious_patterns"`
	MatchedPatterns       []string `json:"matched_patterns,omitempty"`
	ExcessiveCaps         bool     `json:"excessive_caps"`
	ExcessiveSpecialChars bool     `json:"excessive_special_chars"`
	ExcessiveURLs         bool     `json:"excessive_urls"`
	LexiconVersion        string   `json:"lexicon_version"`
}

// OpenVerdict is the permissive verdict used for empty text and classifier faults.
func OpenVerdict(lexiconVersion string) Verdict {
	return Verdict{
		IsAppropriate:  true,
		Confidence:     startConfidence,
		FlaggedTerms:   []string{},
		Suggestions:    []string{},
		LexiconVersion: lexiconVersion,
	}
}

// Classifier scores free text against a Lexicon. It holds no mutable state.
type Classifier struct {
	lexicon *Lexicon
}

func NewClassifier(lexicon *Lexicon) *Classifier {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &Classifier{lexicon: lexicon}
}

func (c *Classifier) Lexicon() *Lexicon {
	return c.lexicon
}

func (c *Classifier) LexiconVersion() string {
	return c.lexicon.version
}

// ClassifySubmission scores the title and description as one text.
func (c *Classifier) ClassifySubmission(title, description string) Verdict {
	return c.Classify(title + " " + description)
}

func (c *Classifier) Classify(text string) Verdict {
	if strings.TrimSpace(text) == "" {
		return OpenVerdict(c.lexicon.version)
	}

	flagged := c.flaggedTerms(text)

	var matched []string
	for _, p := range c.lexicon.patterns {
		if p.Expr.MatchString(text) {
			matched = append(matched, p.Name)
		}
	}
	hasSuspicious := len(matched) > 0

	length, upper, special := countRunes(text)
	urlCount := len(urlPattern.FindAllStringIndex(text, -1))

	excessiveCaps := float64(upper) > float64(length)*excessiveCapsRatio
	excessiveSpecial := float64(special) > float64(length)*excessiveSpecialRate
	excessiveURLs := urlCount > maxURLs

	isAppropriate := len(flagged) == 0 && !hasSuspicious && !excessiveCaps && !excessiveSpecial && !excessiveURLs

	return Verdict{
		IsAppropriate:         isAppropriate,
		Confidence:            confidence(text, len(flagged), urlCount),
		FlaggedTerms:          flagged,
		Suggestions:           c.suggestions(flagged, hasSuspicious, excessiveCaps, excessiveSpecial, excessiveURLs),
		RequiresReview:        !isAppropriate,
		HasSuspiciousPatterns: hasSuspicious,
		MatchedPatterns:       matched,
		ExcessiveCaps:         excessiveCaps,
		ExcessiveSpecialChars: excessiveSpecial,
		ExcessiveURLs:         excessiveURLs,
		LexiconVersion:        c.lexicon.version,
	}
}

// flaggedTerms matches whole token sequences, never substrings of a token.
func (c *Classifier) flaggedTerms(text string) []string {
	tokens := strings.Fields(strings.ToLower(text))
	flagged := []string{}
	seen := make(map[string]struct{})

	for i := range tokens {
		for n := 1; n <= c.lexicon.maxTermTokens && i+n <= len(tokens); n++ {
			candidate := strings.Join(tokens[i:i+n], " ")
			if _, ok := c.lexicon.terms[candidate]; !ok {
				continue
			}
			if _, dup := seen[candidate]; dup {
				continue
			}
			seen[candidate] = struct{}{}
			flagged = append(flagged, candidate)
		}
	}

	return flagged
}

func (c *Classifier) suggestions(flagged []string, suspicious, caps, special, urls bool) []string {
	out := []string{}
	add := func(s string) {
		for _, existing := range out {
			if existing == s {
				return
			}
		}
		out = append(out, s)
	}

	if containsTerm(flagged, "spam") {
		add(SuggestionSpam)
	}
	if containsTerm(flagged, "fake") {
		add(SuggestionFake)
	}
	if anyIn(flagged, c.lexicon.commercial) {
		add(SuggestionCommercial)
	}
	if anyIn(flagged, c.lexicon.financial) {
		add(SuggestionFinancial)
	}
	if anyIn(flagged, c.lexicon.realEstate) {
		add(SuggestionRealEstate)
	}
	if suspicious {
		add(SuggestionContactInfo)
	}
	if caps {
		add(SuggestionCaps)
	}
	if special {
		add(SuggestionSpecialChars)
	}
	if urls {
		add(SuggestionURLs)
	}

	return out
}

func confidence(text string, flaggedCount, urlCount int) int {
	score := startConfidence
	score -= flaggedCount * flaggedTermPenalty
	score -= urlCount * urlPenalty
	score -= len(capsRunPattern.FindAllStringIndex(text, -1)) * capsRunPenalty
	if score < 0 {
		return 0
	}
	return score
}

func countRunes(text string) (length, upper, special int) {
	for _, r := range text {
		length++
		switch {
		case unicode.IsUpper(r):
			upper++
		case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsDigit(r), unicode.IsSpace(r):
		default:
			special++
		}
	}
	return length, upper, special
}

func containsTerm(terms []string, target string) bool {
	for _, t := range terms {
		if t == target {
			return true
		}
	}
	return false
}

func anyIn(terms []string, set map[string]struct{}) bool {
	for _, t := range terms {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
