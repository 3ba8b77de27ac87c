package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrMalformed   = errors.New("malformed message")
)

// Envelope is the frame on the wire: {"type":"...","payload":{...}}.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func Encode(m Message) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Type(), err)
	}
	return json.Marshal(Envelope{Type: m.Type(), Payload: payload})
}

// MustEncode is for messages built from plain values that cannot fail to marshal.
func MustEncode(m Message) []byte {
	b, err := Encode(m)
	if err != nil {
		panic(err)
	}
	return b
}

func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return DecodeEnvelope(env)
}

func DecodeEnvelope(env Envelope) (Message, error) {
	switch env.Type {
	case TypePlayerInfo:
		return decodeAs[PlayerInfo](env)
	case TypeGameState:
		return decodeAs[GameState](env)
	case TypePlayersUpdate:
		return decodeAs[PlayersUpdate](env)
	case TypeSettingsUpdate:
		return decodeAs[SettingsUpdate](env)
	case TypeWordSelectPhase:
		return decodeAs[WordSelectPhase](env)
	case TypeWordChosen:
		return decodeAs[WordChosen](env)
	case TypeYourWord:
		return decodeAs[YourWord](env)
	case TypeDrawingStart:
		return decodeAs[DrawingStart](env)
	case TypeTimerUpdate:
		return decodeAs[TimerUpdate](env)
	case TypeHintReveal:
		return decodeAs[HintReveal](env)
	case TypeDraw:
		m, err := decodeAs[Draw](env)
		if err != nil {
			return nil, err
		}
		if err := m.Operation.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return m, nil
	case TypeChat:
		return decodeAs[Chat](env)
	case TypeCorrectGuess:
		return decodeAs[CorrectGuess](env)
	case TypeCloseGuess:
		return decodeAs[CloseGuess](env)
	case TypeRoundEnd:
		return decodeAs[RoundEnd](env)
	case TypeGameEnd:
		return decodeAs[GameEnd](env)
	case TypePlayAgain:
		return decodeAs[PlayAgain](env)
	case TypeTerminateGame:
		return decodeAs[TerminateGame](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeAs[T Message](env Envelope) (T, error) {
	var m T
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return m, nil
	}
	if err := json.Unmarshal(env.Payload, &m); err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return m, nil
}
