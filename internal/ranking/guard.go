package ranking

import (
	"errors"
	"strings"
)

var ErrQueryRejected = errors.New("query rejected")

// injectionPhrases is a best-effort denylist. It is not a security boundary.
var injectionPhrases = []string{
	"ignore previous instructions",
	"ignore all previous",
	"ignore the above",
	"disregard previous",
	"forget your instructions",
	"you are now",
	"system prompt",
	"pretend to be",
	"jailbreak",
	"bypass",
}

// Check rejects queries that contain a known prompt-injection phrase.
func Check(query string) error {
	q := strings.ToLower(query)
	for _, phrase := range injectionPhrases {
		if strings.Contains(q, phrase) {
			return ErrQueryRejected
		}
	}
	return nil
}

var sanitizer = strings.NewReplacer(
	`\`, "",
	`"`, "",
	`'`, "",
	"`", "",
	"\r", " ",
	"\n", " ",
)

// Sanitize strips characters that could break out of the quoted query in a
// prompt and collapses whitespace.
func Sanitize(query string) string {
	return strings.Join(strings.Fields(sanitizer.Replace(query)), " ")
}
