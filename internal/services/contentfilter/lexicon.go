package contentfilter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const DefaultLexiconVersion = "builtin-1"

// Pattern is a named structural spam signal evaluated against the raw text.
type Pattern struct {
	Name string
	Expr *regexp.Regexp
}

// Lexicon is an immutable snapshot of terms and patterns. Build a new one to change it.
type Lexicon struct {
	version       string
	languages     []string
	terms         map[string]struct{}
	maxTermTokens int
	patterns      []Pattern
	commercial    map[string]struct{}
	financial     map[string]struct{}
	realEstate    map[string]struct{}
}

// LexiconSpec is the mutable input for NewLexicon.
type LexiconSpec struct {
	Version         string
	TermsByLanguage map[string][]string
	Patterns        []PatternSpec
	Commercial      []string
	Financial       []string
	RealEstate      []string
}

type PatternSpec struct {
	Name string
	Expr string
}

func NewLexicon(spec LexiconSpec) (*Lexicon, error) {
	version := strings.TrimSpace(spec.Version)
	if version == "" {
		return nil, fmt.Errorf("lexicon version is required")
	}

	lex := &Lexicon{
		version:    version,
		terms:      make(map[string]struct{}),
		commercial: normalizeSet(spec.Commercial),
		financial:  normalizeSet(spec.Financial),
		realEstate: normalizeSet(spec.RealEstate),
	}

	for language, terms := range spec.TermsByLanguage {
		lex.languages = append(lex.languages, strings.ToLower(strings.TrimSpace(language)))
		for _, term := range terms {
			normalized := normalizeTerm(term)
			if normalized == "" {
				continue
			}
			lex.terms[normalized] = struct{}{}
			if n := len(strings.Fields(normalized)); n > lex.maxTermTokens {
				lex.maxTermTokens = n
			}
		}
	}
	sort.Strings(lex.languages)

	lex.patterns = make([]Pattern, 0, len(spec.Patterns))
	for i, p := range spec.Patterns {
		expr, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %d (%s): %w", i, p.Name, err)
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = fmt.Sprintf("pattern_%d", i)
		}
		lex.patterns = append(lex.patterns, Pattern{Name: name, Expr: expr})
	}

	return lex, nil
}

func (l *Lexicon) Version() string {
	return l.version
}

func (l *Lexicon) Languages() []string {
	return append([]string(nil), l.languages...)
}

func (l *Lexicon) TermCount() int {
	return len(l.terms)
}

func (l *Lexicon) Patterns() []Pattern {
	return append([]Pattern(nil), l.patterns...)
}

func (l *Lexicon) Has(term string) bool {
	_, ok := l.terms[normalizeTerm(term)]
	return ok
}

func normalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}

func normalizeSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if n := normalizeTerm(v); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}

var defaultLexicon = mustLexicon(defaultLexiconSpec())

// DefaultLexicon returns the built-in multilingual lexicon.
func DefaultLexicon() *Lexicon {
	return defaultLexicon
}

func mustLexicon(spec LexiconSpec) *Lexicon {
	lex, err := NewLexicon(spec)
	if err != nil {
		panic(err)
	}
	return lex
}

func defaultLexiconSpec() LexiconSpec {
	return LexiconSpec{
		Version: DefaultLexiconVersion,
		TermsByLanguage: map[string][]string{
			"en": {
				"spam", "scam", "fake", "clickbait", "buy now", "click here",
				"free money", "get rich", "make money fast", "work from home",
				"crypto investment", "bitcoin", "forex trading", "investment opportunity",
				"guaranteed profit", "risk-free", "limited time offer", "act now",
				"call now", "text me", "email me", "contact me immediately",
				"urgent", "immediate", "quick cash", "easy money",
				"mlm", "pyramid scheme", "multi level marketing",
				"get rich quick", "passive income", "side hustle",
				"affiliate marketing", "click here now", "limited time",
				"exclusive offer", "secret method", "proven system",
			},
			"es": {
				"compra", "vende", "comprar", "vender", "propiedad", "inmueble",
				"inversión", "dinero fácil", "ganar dinero", "trabajo desde casa",
				"oportunidad de negocio", "oferta limitada", "llama ahora",
				"contacta", "escribeme", "llamame", "inversión garantizada",
			},
			"fr": {
				"acheter", "vendre", "propriété", "immobilier", "investissement",
				"argent facile", "gagner de l'argent", "travail à domicile",
				"opportunité d'affaires", "offre limitée", "appelez maintenant",
			},
			"de": {
				"kaufen", "verkaufen", "immobilie", "investition", "geld verdienen",
				"arbeit von zuhause", "geschäftsmöglichkeit", "begrenztes angebot",
			},
			"it": {
				"comprare", "vendere", "proprietà", "immobiliare", "investimento",
				"guadagnare soldi", "lavoro da casa", "opportunità di business",
			},
			"pt": {
				"comprar", "vender", "propriedade", "imóvel", "investimento",
				"ganhar dinheiro", "trabalho em casa", "oportunidade de negócio",
			},
		},
		Patterns: []PatternSpec{
			{Name: "url", Expr: urlExpr},
			{Name: "mention", Expr: `@\w+`},
			{Name: "money_amount", Expr: `\$\d+`},
			{Name: "commercial_en", Expr: `(?i)(buy|sell|purchase|order)\s+\w+`},
			{Name: "commercial_es", Expr: `(?i)(compra|vende|comprar|vender)\s+\w+`},
			{Name: "commercial_fr", Expr: `(?i)(acheter|vendre)\s+\w+`},
			{Name: "commercial_de", Expr: `(?i)(kaufen|verkaufen)\s+\w+`},
			{Name: "commercial_it", Expr: `(?i)(comprare|vendere)\s+\w+`},
			{Name: "contact_en", Expr: `(?i)(call|text|email)\s+me`},
			{Name: "contact_es", Expr: `(?i)(llama|contacta|escribeme|llamame)`},
			{Name: "contact_fr", Expr: `(?i)(appelez|contactez|écrivez)`},
			{Name: "phone", Expr: `\d{3}-\d{3}-\d{4}`},
			{Name: "caps_run", Expr: `\p{Lu}{5,}`},
			{Name: "clickbait", Expr: `(?i)(click|visit|go to)\s+(here|this|link)`},
			{Name: "free_prize", Expr: `(?i)(free|no cost|no charge)\s+(gift|prize|money)`},
			{Name: "real_estate_es", Expr: `(?i)(propiedad|inmueble|inversión)`},
			{Name: "real_estate_fr", Expr: `(?i)(propriété|immobilier|investissement)`},
			{Name: "real_estate_de", Expr: `(?i)(immobilie|investition)`},
		},
		Commercial: []string{
			"buy", "sell", "purchase", "buy now",
			"compra", "vende", "comprar", "vender",
			"acheter", "vendre", "kaufen", "verkaufen", "comprare", "vendere",
		},
		Financial: []string{
			"get rich", "make money", "free money", "make money fast", "get rich quick",
			"ganar dinero", "gagner de l'argent", "geld verdienen", "guadagnare soldi", "ganhar dinheiro",
		},
		RealEstate: []string{
			"propiedad", "inmueble", "inversión", "propriété", "immobilier", "investissement",
			"immobilie", "investition", "proprietà", "immobiliare", "propriedade", "imóvel",
		},
	}
}
