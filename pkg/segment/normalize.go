package segment

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/net/html"

	"github.com/dafgraph/backend/pkg/common"
)

const (
	// DefaultContentBudget bounds the combined page content handed to an
	// analyzer. Truncation is lossy and silent.
	DefaultContentBudget = 4000

	defaultTokenEncoder = "cl100k_base"
)

// Normalizer turns a page's segment list into one analysis-ready string.
type Normalizer struct {
	budget  int
	encoder string
}

// NormalizerParams configures a Normalizer. Zero values select the defaults.
type NormalizerParams struct {
	ContentBudget int
	TokenEncoder  string
}

func NewNormalizer(params NormalizerParams) *Normalizer {
	budget := params.ContentBudget
	if budget <= 0 {
		budget = DefaultContentBudget
	}
	encoder := params.TokenEncoder
	if encoder == "" {
		encoder = defaultTokenEncoder
	}
	return &Normalizer{budget: budget, encoder: encoder}
}

// Combine strips markup from each segment's text fields, concatenates them
// in order and truncates the result to the content budget. It never fails:
// segments with empty content simply contribute nothing.
func (n *Normalizer) Combine(segments []common.Segment) string {
	var parts []string
	for _, s := range segments {
		if t := strings.TrimSpace(StripMarkup(s.PrimaryText)); t != "" {
			parts = append(parts, t)
		}
		if t := strings.TrimSpace(StripMarkup(s.SecondaryText)); t != "" {
			parts = append(parts, t)
		}
	}

	combined := strings.Join(parts, "\n\n")
	if len(combined) > n.budget {
		combined = truncateAtRune(combined, n.budget)
	}
	return combined
}

// CountTokens reports the token count of the combined content under the
// configured encoding. Used for logging and cost accounting only.
func (n *Normalizer) CountTokens(content string) int {
	enc, err := tiktoken.GetEncoding(n.encoder)
	if err != nil {
		return 0
	}
	return len(enc.Encode(content, nil, nil))
}

// StripMarkup removes HTML/markup tags from raw segment text, keeping only
// text content.
func StripMarkup(raw string) string {
	if !strings.ContainsRune(raw, '<') {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))
	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(tokenizer.Text())
		}
	}
	return b.String()
}

// truncateAtRune cuts s to at most max bytes without splitting a rune.
func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
