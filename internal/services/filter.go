package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultMinKeepRatio is the safety floor for AI cleaning: a result shorter
// than this fraction of the deterministic pass is discarded as over-aggressive.
const DefaultMinKeepRatio = 0.3

// TextCleaner is the AI-assisted cleaning capability. Best effort only; the
// filter falls back to its deterministic pass on any failure.
type TextCleaner interface {
	Clean(ctx context.Context, text, language string) (string, error)
}

// Per-language filler tokens, matched case-insensitively as whole words.
// Longer phrases are listed after their prefixes would be, so order matters:
// "so basically" must go before "basically" is reached.
var fillerWords = map[string][]string{
	"hinglish": {
		"umm", "uhh", "acha", "haan", "toh", "matlab", "yaar", "ok guys", "alright guys", "guys",
		"so basically", "you know", "like", "actually", "literally", "obviously", "basically",
		"देखिए", "तो", "हाँ", "ठीक है", "अच्छा", "चलिए", "समझे", "बात यह है",
	},
	"english": {
		"umm", "uhh", "you know", "ok guys", "alright", "I mean", "kind of", "sort of",
		"like", "actually", "literally", "basically", "obviously", "so", "well", "anyway",
	},
	"hindi": {
		"देखिए", "तो", "हाँ", "ठीक है", "अच्छा", "चलिए", "समझे", "बात यह है", "मतलब",
		"यार", "अरे", "हम्म", "उम्म",
	},
}

var fillerPatterns = map[string][]*regexp.Regexp{}

func init() {
	for lang, fillers := range fillerWords {
		patterns := make([]*regexp.Regexp, 0, len(fillers))
		for _, filler := range fillers {
			patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(filler)+`\b`))
		}
		fillerPatterns[lang] = patterns
	}
}

var (
	multiSpace  = regexp.MustCompile(`\s+`)
	multiPeriod = regexp.MustCompile(`\.\s*\.`)
	multiComma  = regexp.MustCompile(`,\s*,`)
)

// ContentFilter runs a deterministic filler-removal pass and then an optional
// AI pass. Filter never fails: every error path degrades to the deterministic
// result.
type ContentFilter struct {
	cleaner      TextCleaner // nil disables the AI pass
	minKeepRatio float64
	log          *logrus.Entry
}

func NewContentFilter(cleaner TextCleaner, minKeepRatio float64, log *logrus.Entry) *ContentFilter {
	if minKeepRatio <= 0 || minKeepRatio >= 1 {
		minKeepRatio = DefaultMinKeepRatio
	}
	return &ContentFilter{cleaner: cleaner, minKeepRatio: minKeepRatio, log: log}
}

func (f *ContentFilter) Filter(ctx context.Context, text, language string) string {
	basic := RemoveFillers(text, language)
	if f.cleaner == nil {
		return basic
	}

	cleaned, err := f.cleaner.Clean(ctx, basic, language)
	if err != nil {
		f.log.WithError(err).Warn("AI content filtering failed, keeping deterministic result")
		return basic
	}

	if len(cleaned) < int(float64(len(basic))*f.minKeepRatio) {
		f.log.WithFields(logrus.Fields{
			"input_len":  len(basic),
			"output_len": len(cleaned),
		}).Warn("AI filtering removed too much content, keeping deterministic result")
		return basic
	}

	return cleaned
}

// RemoveFillers strips the language's filler tokens and collapses the
// whitespace and punctuation left behind. Unknown languages use the hinglish
// list.
func RemoveFillers(text, language string) string {
	patterns, ok := fillerPatterns[language]
	if !ok {
		patterns = fillerPatterns["hinglish"]
	}

	filtered := text
	for _, p := range patterns {
		filtered = p.ReplaceAllString(filtered, "")
	}

	filtered = multiSpace.ReplaceAllString(filtered, " ")
	filtered = multiPeriod.ReplaceAllString(filtered, ".")
	filtered = multiComma.ReplaceAllString(filtered, ",")
	return strings.TrimSpace(filtered)
}
