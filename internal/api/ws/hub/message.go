package hub

import (
	"context"
	"encoding/json"
	"fmt"

	"wordgame-service/domain"
)

// Inbound intents.
const (
	TypeStartRound        = "start_round"
	TypeSubmitWord        = "submit_word"
	TypeChoosePublicWord  = "choose_public_word"
	TypeChooseReplacement = "choose_replacement"
	TypeNextRound         = "next_round"
	TypeLeaveRoom         = "leave_room"
)

// Outbound messages besides room events.
const (
	TypeError = "error"
	TypeLeft  = "left_room"
)

type Message struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

type WordContent struct {
	Word string `json:"word"`
}

type ReplacementContent struct {
	Index *int `json:"index"`
}

// Dispatch applies one intent to the session. left reports that the
// session is over and the connection should close, even when err is set.
func Dispatch(ctx context.Context, session Session, msg Message) (left bool, err error) {
	switch msg.Type {
	case TypeStartRound:
		return false, session.StartRound(ctx)

	case TypeNextRound:
		return false, session.NextRound(ctx)

	case TypeSubmitWord:
		var c WordContent
		if err := decodeContent(msg, &c); err != nil {
			return false, err
		}
		return false, session.SubmitWord(ctx, c.Word)

	case TypeChoosePublicWord:
		var c WordContent
		if err := decodeContent(msg, &c); err != nil {
			return false, err
		}
		return false, session.ChoosePublicWord(ctx, c.Word)

	case TypeChooseReplacement:
		var c ReplacementContent
		if err := decodeContent(msg, &c); err != nil {
			return false, err
		}
		if c.Index == nil {
			return false, fmt.Errorf("%w: index is required", domain.ErrValidation)
		}
		return false, session.ChooseReplacement(ctx, *c.Index)

	case TypeLeaveRoom:
		return true, session.Leave(ctx)

	default:
		return false, fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, msg.Type)
	}
}

func decodeContent(msg Message, v any) error {
	if len(msg.Content) == 0 {
		return fmt.Errorf("%w: %s needs content", domain.ErrValidation, msg.Type)
	}
	if err := json.Unmarshal(msg.Content, v); err != nil {
		return fmt.Errorf("%w: %s content: %v", domain.ErrValidation, msg.Type, err)
	}
	return nil
}
