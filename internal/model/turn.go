package model

import "time"

type Speaker string

const (
	SpeakerUser   Speaker = "user"
	SpeakerBot    Speaker = "bot"
	SpeakerSystem Speaker = "system"
)

// Turn is one unit of the conversation transcript.
type Turn struct {
	Speaker    Speaker     `json:"speaker"`
	Text       string      `json:"text"`
	References []Reference `json:"references,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func UserTurn(text string) Turn {
	return Turn{Speaker: SpeakerUser, Text: text, CreatedAt: time.Now()}
}

func BotTurn(text string, refs []Reference) Turn {
	return Turn{Speaker: SpeakerBot, Text: text, References: refs, CreatedAt: time.Now()}
}

func SystemTurn(text string) Turn {
	return Turn{Speaker: SpeakerSystem, Text: text, CreatedAt: time.Now()}
}
