package services

import (
	"regexp"
	"strings"

	"dictumflow/internal/models"
)

// Shared fragments of the standardized dictum formulations. Every modern
// dictum opens with the same clause; the rest varies in the object of advice
// (bill vs. draft decree), the back-reference pronoun, and the preposition.
const (
	dictumStartPattern = `De\s+Afdeling\s+advisering\s+van\s+de\s+Raad\s+van\s+State\s+heeft`
	proposalVars       = `(het\s+voorstel|de\s+ontwerpbesluiten|het\s+ontwerpbesluit)`
	proposalRef        = `(het\s+voorstel|deze|het)`
	bijOver            = `(bij|over)`
	besluitVars        = `(het|een)\s+besluit`
)

// dictumPattern tags one regex variant with its category.
type dictumPattern struct {
	category models.Category
	re       *regexp.Regexp
}

// dictumPatterns is the fixed precedence order: A before B before C before D,
// and within a category the parliament-submission variant before the
// decree-adoption variant. The first match wins; no further patterns are
// consulted.
var dictumPatterns = []dictumPattern{
	// A: no remarks, advises to submit.
	{models.CategoryNoRemarks, dictumRegexp(
		dictumStartPattern + `\s+geen\s+opmerkingen\s+` + bijOver + `\s+` + proposalVars +
			`\s+en\s+adviseert\s+` + proposalRef + `\s+bij\s+de\s+Tweede\s+Kamer\s+der\s+Staten-Generaal\s+in\s+te\s+dienen`)},
	{models.CategoryNoRemarks, dictumRegexp(
		dictumStartPattern + `\s+geen\s+opmerkingen\s+` + bijOver + `\s+` + proposalVars +
			`\s+en\s+adviseert\s+` + besluitVars + `\s+te\s+nemen`)},

	// B: a number of remarks, advises to take them into account first.
	{models.CategoryMinorRemarks, dictumRegexp(
		dictumStartPattern + `\s+een\s+aantal\s+opmerkingen\s+` + bijOver + `\s+` + proposalVars +
			`\s+en\s+adviseert\s+daarmee\s+rekening\s+te\s+houden\s+voordat\s+` + proposalRef +
			`\s+bij\s+de\s+Tweede\s+Kamer\s+der\s+Staten-Generaal\s+(wordt|worden)\s+ingediend`)},
	{models.CategoryMinorRemarks, dictumRegexp(
		dictumStartPattern + `\s+een\s+aantal\s+opmerkingen\s+` + bijOver + `\s+` + proposalVars +
			`\s+en\s+adviseert\s+daarmee\s+rekening\s+te\s+houden\s+voordat\s+` + besluitVars +
			`\s+(wordt|worden)\s+genomen`)},

	// C: objections, advises not to submit unless amended.
	{models.CategoryObjections, dictumRegexp(
		dictumStartPattern + `\s+(een\s+aantal\s+)?bezwaren\s+` + bijOver + `\s+` + proposalVars +
			`\s+en\s+adviseert\s+` + proposalRef + `\s+niet\s+bij\s+de\s+Tweede\s+Kamer\s+der\s+Staten-Generaal\s+in\s+te\s+dienen,\s*tenzij\s+(het|deze)\s+(is|zijn)\s+aangepast`)},
	{models.CategoryObjections, dictumRegexp(
		dictumStartPattern + `\s+(een\s+aantal\s+)?bezwaren\s+` + bijOver + `\s+` + proposalVars +
			`\s+en\s+adviseert\s+` + besluitVars + `\s+niet\s+te\s+nemen,\s*tenzij\s+(het|deze)\s+(is|zijn)\s+aangepast`)},

	// D: serious objections, advises not to submit at all.
	{models.CategorySeriousObjections, dictumRegexp(
		dictumStartPattern + `\s+ernstige\s+bezwaren\s+tegen\s+` + proposalVars +
			`\s+en\s+adviseert\s+` + proposalRef + `\s+niet\s+bij\s+de\s+Tweede\s+Kamer\s+der\s+Staten-Generaal\s+in\s+te\s+dienen`)},
	{models.CategorySeriousObjections, dictumRegexp(
		dictumStartPattern + `\s+ernstige\s+bezwaren\s+tegen\s+` + proposalVars +
			`\s+en\s+adviseert\s+` + besluitVars + `\s+niet\s+te\s+nemen`)},
}

func dictumRegexp(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + pattern + `\b`)
}

// MatchDictum scans text for one of the standardized dictum formulations and
// returns the matched category with the literal span as evidence, or nil when
// no formulation is present and the caller must fall back to the model.
// MatchDictum is a pure function: classifying the same text twice yields the
// same outcome.
func MatchDictum(text string) *models.MatchOutcome {
	// Collapse all whitespace runs so line breaks inside a dictum cannot
	// defeat the patterns.
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}

	for _, p := range dictumPatterns {
		if span := p.re.FindString(normalized); span != "" {
			return &models.MatchOutcome{Category: p.category, Evidence: span}
		}
	}
	return nil
}
