package validation

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Verdict is the outcome of CheckBody.
type Verdict string

const (
	Valid         Verdict = "valid"
	TooShort      Verdict = "Content Too Short"
	Inappropriate Verdict = "Inappropriate language is not allowed"
)

// MinBodyLength is the shortest accepted trimmed body, in characters.
const MinBodyLength = 3

var defaultBannedWords = []string{
	"arse", "asshole", "bastard", "bitch", "bollocks", "bullshit", "crap",
	"cunt", "damn", "dick", "dickhead", "fag", "faggot", "fuck", "fucker",
	"fucking", "motherfucker", "nigga", "nigger", "piss", "prick", "pussy",
	"retard", "shit", "shitty", "slut", "twat", "wanker", "whore",
}

// ContentFilter rejects short or profane bodies.
type ContentFilter struct {
	banned map[string]struct{}
}

// bannedWordsFile is the on-disk shape of BANNED_WORDS_FILE.
type bannedWordsFile struct {
	Words []string `yaml:"words"`
	Allow []string `yaml:"allow"`
}

// NewContentFilter builds a filter from the default list plus extra words.
func NewContentFilter(extra ...string) *ContentFilter {
	f := &ContentFilter{banned: make(map[string]struct{}, len(defaultBannedWords)+len(extra))}
	for _, w := range defaultBannedWords {
		f.add(w)
	}
	for _, w := range extra {
		f.add(w)
	}
	return f
}

// LoadContentFilter extends the default list with a YAML file of the form
//
//	words: [foo, bar]
//	allow: [damn]
//
// An empty path yields the default filter.
func LoadContentFilter(path string) (*ContentFilter, error) {
	if strings.TrimSpace(path) == "" {
		return NewContentFilter(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read banned words file: %w", err)
	}
	return ParseContentFilter(raw)
}

// ParseContentFilter is LoadContentFilter on an in-memory document.
func ParseContentFilter(raw []byte) (*ContentFilter, error) {
	var doc bannedWordsFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse banned words file: %w", err)
	}
	f := NewContentFilter(doc.Words...)
	for _, w := range doc.Allow {
		delete(f.banned, strings.ToLower(strings.TrimSpace(w)))
	}
	return f, nil
}

func (f *ContentFilter) add(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word != "" {
		f.banned[word] = struct{}{}
	}
}

// CheckBody returns Valid, TooShort or Inappropriate.
func (f *ContentFilter) CheckBody(body string) Verdict {
	trimmed := strings.TrimSpace(body)
	if len([]rune(trimmed)) < MinBodyLength {
		return TooShort
	}
	if f.IsProfane(trimmed) {
		return Inappropriate
	}
	return Valid
}

// IsProfane reports whether any word of text is on the banned list.
func (f *ContentFilter) IsProfane(text string) bool {
	if f == nil {
		return false
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if _, ok := f.banned[w]; ok {
			return true
		}
	}
	return false
}

// CheckBody runs the default filter.
func CheckBody(body string) Verdict {
	return defaultFilter.CheckBody(body)
}

var defaultFilter = NewContentFilter()
