// Package aura – fallback.go implements the local fallback voice used when
// the completion backend fails. The user always gets a reply; memory
// records whatever text was actually shown.
package aura

import "fmt"

// fallbackTemplate is the generic line used when a persona has no flair.
const fallbackTemplate = "i'm on fallback juice. not perfect, but here's my best shot:"

// personaFlair gives a few personas a voice-appropriate fallback opener.
var personaFlair = map[string]string{
	"rogue":     "bruh, that was a wild take. here's a roast-lite:",
	"manhua":    "The heavens sleep; still, the world demands an answer:",
	"dreamcore": "softly, from the edge of sleep:",
	"academic":  "Short fallback summary:",
	"default":   "Quick fallback summary:",
}

// FallbackReply builds the fixed fallback text for a persona, echoing a
// truncated slice of the user's message so the reply stays on topic.
func FallbackReply(personaKey, userText string) string {
	flair, ok := personaFlair[personaKey]
	if !ok {
		flair = fallbackTemplate
	}

	const maxEcho = 240
	if runes := []rune(userText); len(runes) > maxEcho {
		userText = string(runes[:maxEcho])
	}
	if userText == "" {
		return flair
	}
	return fmt.Sprintf("%s\n\n— echo: %q", flair, userText)
}
