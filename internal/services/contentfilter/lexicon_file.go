package contentfilter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LexiconFile is the YAML shape of a lexicon override.
type LexiconFile struct {
	Version    string              `yaml:"version"`
	Replace    bool                `yaml:"replace"`
	Languages  map[string][]string `yaml:"languages"`
	Patterns   []PatternFileEntry  `yaml:"patterns"`
	Commercial []string            `yaml:"commercial"`
	Financial  []string            `yaml:"financial"`
	RealEstate []string            `yaml:"real_estate"`
}

type PatternFileEntry struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// LoadLexiconFile reads an override file and merges it onto the default lexicon,
// or replaces it when the file sets replace: true.
func LoadLexiconFile(path string) (*Lexicon, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("lexicon path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon file: %w", err)
	}
	return ParseLexicon(raw)
}

func ParseLexicon(raw []byte) (*Lexicon, error) {
	var file LexiconFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode lexicon yaml: %w", err)
	}
	if strings.TrimSpace(file.Version) == "" {
		return nil, errors.New("lexicon file: version is required")
	}

	spec := LexiconSpec{Version: file.Version}
	if !file.Replace {
		spec = defaultLexiconSpec()
		spec.Version = file.Version
	}

	if spec.TermsByLanguage == nil {
		spec.TermsByLanguage = make(map[string][]string, len(file.Languages))
	}
	for lang, terms := range file.Languages {
		spec.TermsByLanguage[lang] = append(append([]string(nil), spec.TermsByLanguage[lang]...), terms...)
	}
	for _, p := range file.Patterns {
		spec.Patterns = append(spec.Patterns, PatternSpec{Name: p.Name, Expr: p.Expr})
	}
	spec.Commercial = append(spec.Commercial, file.Commercial...)
	spec.Financial = append(spec.Financial, file.Financial...)
	spec.RealEstate = append(spec.RealEstate, file.RealEstate...)

	lex, err := NewLexicon(spec)
	if err != nil {
		return nil, fmt.Errorf("build lexicon: %w", err)
	}
	return lex, nil
}
