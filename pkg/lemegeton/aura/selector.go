// Package aura – selector.go implements the trigger check and the persona
// scoring algorithm. Scoring is a pure function of the message text, the
// role of the last stored turn, and the lock state; given the same inputs
// it always picks the same persona.
package aura

import (
	"regexp"
	"strings"
)

// Score weights.
const (
	keywordScore     = 2 // per matched trigger keyword, no dedup across match events
	punctuationBonus = 1
	lastTurnBonus    = 1
)

// Selector scores personas against incoming messages.
type Selector struct {
	registry *Registry

	// patterns holds one compiled whole-word pattern per trigger keyword,
	// in trigger order, keyed by persona key.
	patterns map[string][]*regexp.Regexp
}

// NewSelector precompiles the word-boundary patterns for every trigger in
// the registry.
func NewSelector(registry *Registry) *Selector {
	patterns := make(map[string][]*regexp.Regexp, registry.Len())
	for _, p := range registry.All() {
		compiled := make([]*regexp.Regexp, 0, len(p.Triggers))
		for _, kw := range p.Triggers {
			compiled = append(compiled, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)+`\b`))
		}
		patterns[p.Key] = compiled
	}
	return &Selector{registry: registry, patterns: patterns}
}

// ShouldRespond reports whether the message warrants a reply: the bot was
// mentioned, the message replies to the bot, or any persona trigger keyword
// appears as a whole word. The guild enabled flag is checked by the engine
// before this is consulted.
func (s *Selector) ShouldRespond(text string, mentionsBot, replyToBot bool) bool {
	if mentionsBot || replyToBot {
		return true
	}
	return s.anyTrigger(strings.ToLower(text))
}

// Select picks the persona that answers. A locked persona wins outright
// (scoring skipped); otherwise the highest-scoring persona wins, ties
// breaking on catalog order. When nothing scores, the default persona
// answers.
func (s *Selector) Select(text, lastRole, lockedPersona string) string {
	if lockedPersona != "" {
		if _, ok := s.registry.Get(lockedPersona); ok {
			return lockedPersona
		}
		// A lock pointing at a removed persona falls through to scoring.
	}

	lower := strings.ToLower(text)
	scores := make(map[string]int, s.registry.Len())

	for _, key := range s.registry.Keys() {
		for _, pat := range s.patterns[key] {
			if pat.MatchString(lower) {
				scores[key] += keywordScore
			}
		}
	}

	if strings.HasSuffix(strings.TrimSpace(lower), "?") {
		scores[DefaultPersonaKey] += punctuationBonus
	}
	if strings.Contains(lower, "!") {
		scores["manhua"] += punctuationBonus
		scores["oracle"] += punctuationBonus
	}
	// Reinforcement heuristic: memory does not track which persona wrote
	// the last assistant turn, so only the default persona benefits.
	if lastRole == RoleAssistant {
		scores[DefaultPersonaKey] += lastTurnBonus
	}

	best, bestScore := "", -1
	for _, key := range s.registry.Keys() {
		if scores[key] > bestScore {
			best, bestScore = key, scores[key]
		}
	}
	if bestScore == 0 {
		return DefaultPersonaKey
	}
	return best
}

// anyTrigger reports whether any persona trigger matches the lowercased
// text as a whole word.
func (s *Selector) anyTrigger(lower string) bool {
	for _, key := range s.registry.Keys() {
		for _, pat := range s.patterns[key] {
			if pat.MatchString(lower) {
				return true
			}
		}
	}
	return false
}
