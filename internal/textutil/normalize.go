package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// punctuationStripper removes the punctuation that transcription tools and
// script writers disagree on. Everything else, including hyphens and digits,
// is kept as part of the token.
var punctuationStripper = strings.NewReplacer(
	".", "",
	",", "",
	":", "",
	"?", "",
	"\"", "",
	"'", "",
	"“", "",
	"”", "",
	"‘", "",
	"’", "",
)

// Normalize converts text into an ordered sequence of lowercase tokens.
// Empty or whitespace-only input returns an empty, non-nil slice.
func Normalize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	lowered := strings.ToLower(norm.NFC.String(text))
	return strings.Fields(punctuationStripper.Replace(lowered))
}
