// Package langdetect identifies the language of scraped job descriptions.
package langdetect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// ErrUndetectable is returned when no language can be identified in the text.
var ErrUndetectable = errors.New("language could not be detected")

// Classifier returns the ISO 639-1 code of a text.
type Classifier interface {
	Detect(text string) (string, error)
}

// Whatlang detects languages with trigram statistics.
type Whatlang struct {
	// MinConfidence rejects detections below this score. Zero accepts any.
	MinConfidence float64
}

// Detect returns the ISO 639-1 code (ISO 639-3 when no two-letter code exists).
func (w Whatlang) Detect(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrUndetectable
	}

	info := whatlanggo.Detect(text)
	if info.Script == nil || info.Lang < 0 {
		return "", ErrUndetectable
	}
	if info.Confidence < w.MinConfidence {
		return "", fmt.Errorf("%w: %s with confidence %.2f", ErrUndetectable, info.Lang, info.Confidence)
	}

	if code := info.Lang.Iso6391(); code != "" {
		return code, nil
	}
	if code := info.Lang.Iso6393(); code != "" {
		return Normalize(code)
	}
	return "", ErrUndetectable
}

// Normalize validates a language code and reduces it to its base language,
// e.g. "EN", "en-US" and "eng" all become "en".
func Normalize(code string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", code, err)
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", fmt.Errorf("invalid language %q", code)
	}
	return base.String(), nil
}
