package textclean

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed contractions.yml
var contractionsFS embed.FS

var (
	urlPattern        = regexp.MustCompile(`http\S+|www\.\S+|\.com|\.org|\.net|\.bsky\.social`)
	mentionPattern    = regexp.MustCompile(`[@#]\w+`)
	disallowedPattern = regexp.MustCompile(`[^a-zA-Z0-9\s!?.,']`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Cleaner reduces raw post text to a lowercase alphanumeric form suitable for
// sentiment scoring. Contractions are expanded first so the apostrophe filter
// does not mangle them.
type Cleaner struct {
	contractions []contraction
}

type contraction struct {
	pattern     *regexp.Regexp
	replacement string
}

func NewCleaner() (*Cleaner, error) {
	data, err := contractionsFS.ReadFile("contractions.yml")
	if err != nil {
		return nil, fmt.Errorf("failed to read contractions file: %w", err)
	}

	var table map[string]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse contractions file: %w", err)
	}

	// Longer forms first so "shouldn't've" wins over "shouldn't"
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	c := &Cleaner{}
	for _, k := range keys {
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(k))
		if err != nil {
			return nil, fmt.Errorf("failed to compile contraction %q: %w", k, err)
		}
		c.contractions = append(c.contractions, contraction{pattern, table[k]})
	}

	return c, nil
}

// Clean normalizes the text to NFKC, expands contractions, strips URLs,
// mentions and hashtags, drops everything outside letters, digits and basic
// punctuation, lowercases and collapses whitespace.
func (c *Cleaner) Clean(text string) string {
	text = norm.NFKC.String(text)

	for _, entry := range c.contractions {
		text = entry.pattern.ReplaceAllString(text, entry.replacement)
	}

	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = disallowedPattern.ReplaceAllString(text, "")
	text = strings.ToLower(text)
	text = whitespacePattern.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
