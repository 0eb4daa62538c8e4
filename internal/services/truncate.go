package services

import "strings"

// DefaultMaxContentChars is the content budget handed to the model. Opinions
// regularly run to tens of thousands of characters while the dictum sits in
// the final paragraphs, so oversized content is shrunk around the most likely
// dictum location instead of being cut head-first.
const DefaultMaxContentChars = 6000

// dictumOpening is the canonical opening clause of a modern dictum. The last
// occurrence is the one that matters: earlier occurrences are usually quotes.
const dictumOpening = "De Afdeling advisering van de Raad van State heeft"

// Formal closing phrases, tried when no canonical opening is present. The
// occurrence that appears latest in the document wins.
var closingPhrases = []string{
	"Met de Koning",
	"De vice-president,",
	"De Afdeling advisering van de Raad van State",
	"De Voorzitter van de Afdeling advisering",
}

// Window sizes around the located anchor, in characters. Tuned against the
// raadvanstate.nl advice format.
const (
	openingContextBefore = 100
	openingContextAfter  = 500
	closingContextBefore = 3000
	closingContextAfter  = 250
)

// TruncateContent shrinks text to at most maxChars while keeping the passage
// most likely to contain the dictum. Text at or under the budget is returned
// unchanged. A maxChars of zero or less selects DefaultMaxContentChars.
func TruncateContent(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxContentChars
	}
	if text == "" || len(text) <= maxChars {
		return text
	}

	if pos := strings.LastIndex(text, dictumOpening); pos >= 0 {
		start := max(0, pos-openingContextBefore)
		end := min(pos+openingContextAfter, len(text))
		// Trim from the tail if the budget is smaller than the window, so
		// the opening clause itself survives.
		if end-start > maxChars {
			end = start + maxChars
		}
		return text[start:end]
	}

	lastPos := -1
	phraseLen := 0
	for _, phrase := range closingPhrases {
		if pos := strings.LastIndex(text, phrase); pos > lastPos {
			lastPos = pos
			phraseLen = len(phrase)
		}
	}
	if lastPos >= 0 {
		start := max(0, lastPos-closingContextBefore)
		end := min(lastPos+phraseLen+closingContextAfter, len(text))
		// Trim from the front; the closing phrase and its tail matter most.
		if end-start > maxChars {
			start = end - maxChars
		}
		return text[start:end]
	}

	// Ellipsis marker counts against the budget.
	return "..." + text[len(text)-maxChars+3:]
}
