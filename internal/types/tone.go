package types

import "fmt"

// Tone is the narrative voice requested for a generated story.
type Tone string

// Supported tones
const (
	ToneProfessional   Tone = "professional"
	ToneConversational Tone = "conversational"
	ToneConfident      Tone = "confident"
	ToneHumble         Tone = "humble"
	ToneConcise        Tone = "concise"
)

// DefaultTone is selected when the builder starts.
const DefaultTone = ToneProfessional

// Tones lists the supported tones in display order.
var Tones = []Tone{ToneProfessional, ToneConversational, ToneConfident, ToneHumble, ToneConcise}

var toneDescriptions = map[Tone]string{
	ToneProfessional:   "Polished and formal, suited to most interview panels.",
	ToneConversational: "Relaxed and natural, as if telling the story to a colleague.",
	ToneConfident:      "Direct and assertive, emphasizing ownership and impact.",
	ToneHumble:         "Team-first, crediting collaborators while showing your part.",
	ToneConcise:        "Short and to the point, for rapid-fire rounds.",
}

// Description returns the fixed description for the tone, or "" if unknown.
func (t Tone) Description() string {
	return toneDescriptions[t]
}

// Valid reports whether t is one of the supported tones.
func (t Tone) Valid() bool {
	_, ok := toneDescriptions[t]
	return ok
}

// ParseTone converts a string to a supported Tone.
func ParseTone(s string) (Tone, error) {
	t := Tone(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tone %q", s)
	}
	return t, nil
}

// DefaultThemes is the theme list offered when the caller supplies none of its own.
var DefaultThemes = []string{
	"Leadership",
	"Problem Solving",
	"Teamwork",
	"Conflict Resolution",
	"Innovation",
	"Handling Failure",
}
