package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kidsgram/internal/common"
)

// Emotion is the mood tag attached to an entry.
type Emotion string

const (
	EmotionTears Emotion = "tears"
	EmotionUpset Emotion = "upset"
	EmotionCalm  Emotion = "calm"
	EmotionGood  Emotion = "good"
	EmotionHappy Emotion = "happy"
)

// Emotions lists the tags in selector order, saddest first.
var Emotions = []Emotion{EmotionTears, EmotionUpset, EmotionCalm, EmotionGood, EmotionHappy}

var emotionEmoji = map[Emotion]string{
	EmotionTears: "😢",
	EmotionUpset: "😕",
	EmotionCalm:  "😐",
	EmotionGood:  "🙂",
	EmotionHappy: "😊",
}

func (e Emotion) Valid() bool {
	_, ok := emotionEmoji[e]
	return ok
}

// Emoji returns the glyph the mobile client shows for the tag.
func (e Emotion) Emoji() string {
	return emotionEmoji[e]
}

// ParseEmotion accepts a tag name in any case or its emoji, as sent by
// older clients.
func ParseEmotion(s string) (Emotion, error) {
	s = strings.TrimSpace(s)

	if e := Emotion(strings.ToLower(s)); e.Valid() {
		return e, nil
	}
	for e, glyph := range emotionEmoji {
		if glyph == s {
			return e, nil
		}
	}

	return "", fmt.Errorf("%w: unknown emotion %q", common.ErrorValidation, s)
}
