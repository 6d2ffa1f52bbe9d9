// Package search implements the routed answer pipeline: a heuristic
// router picks web or direct mode, the web path searches, fetches, and
// summarizes pages in parallel, and a validator enforces the output
// schema with one model-assisted repair attempt.
package search

import (
	"regexp"
	"strings"

	"github.com/inquisit-ai/inquisit/engine/domain"
)

// longQueryThreshold routes anything longer to the web path.
const longQueryThreshold = 70

// recentYearPattern matches years 2024 through 2039.
var recentYearPattern = regexp.MustCompile(`\b20(2[4-9]|3[0-9])\b`)

// webSignalPatterns are matched against the lowercased query. Any hit
// routes to web mode. An LLM-based intent classifier was considered
// for this decision and deliberately left out; routing stays a pure
// function.
var webSignalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\btop[-\s]*\d+\b`),
	regexp.MustCompile(`\bbest\b`),
	regexp.MustCompile(`\brank(?:ing|ings)?\b`),
	regexp.MustCompile(`\bwhich\s+is\s+better\b`),
	regexp.MustCompile(`\b(?:vs\.?|versus)\b`),
	regexp.MustCompile(`\b(?:compare|comparison)\b`),

	regexp.MustCompile(`\b(?:price|prices|pricing|cost|costs|cheapest|cheaper|affordable)\b`),
	regexp.MustCompile(`\bunder\s*\d+(?:\s*k)?\b`),
	regexp.MustCompile(`\p{Sc}\s*\d+`),

	regexp.MustCompile(`\b(?:latest|today|now|current)\b`),
	regexp.MustCompile(`\b(?:news|breaking|trending)\b`),
	regexp.MustCompile(`\b(?:released?|launch|launched|announce|announced|update|updated)\b`),
	regexp.MustCompile(`\b(?:changelog|release\s*notes?)\b`),

	regexp.MustCompile(`\b(?:deprecated|eol|end\s*of\s*life|sunset)\b`),
	regexp.MustCompile(`\broadmap\b`),

	regexp.MustCompile(`\b(?:works\s+with|compatible\s+with|supported?\s+on)\b`),
	regexp.MustCompile(`\binstall(?:ation)?\b`),

	regexp.MustCompile(`\bnear\s+me\b|\bnearby\b`),
}

// Route classifies a query as needing live web information or not.
// Pure and total: no I/O, no model call, every input maps to exactly
// one mode.
func Route(query string) domain.Mode {
	q := strings.ToLower(strings.TrimSpace(query))

	if len(q) > longQueryThreshold {
		return domain.ModeWeb
	}
	if recentYearPattern.MatchString(q) {
		return domain.ModeWeb
	}
	for _, p := range webSignalPatterns {
		if p.MatchString(q) {
			return domain.ModeWeb
		}
	}
	return domain.ModeDirect
}
