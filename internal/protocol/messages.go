package protocol

import "example.com/drawguess/internal/drawing"

// Type is the envelope tag of a wire message.
type Type string

const (
	TypePlayerInfo      Type = "playerInfo"
	TypeGameState       Type = "gameState"
	TypePlayersUpdate   Type = "playersUpdate"
	TypeSettingsUpdate  Type = "settingsUpdate"
	TypeWordSelectPhase Type = "wordSelectPhase"
	TypeWordChosen      Type = "wordChosen"
	TypeYourWord        Type = "yourWord"
	TypeDrawingStart    Type = "drawingStart"
	TypeTimerUpdate     Type = "timerUpdate"
	TypeHintReveal      Type = "hintReveal"
	TypeDraw            Type = "draw"
	TypeChat            Type = "chat"
	TypeCorrectGuess    Type = "correctGuess"
	TypeCloseGuess      Type = "closeGuess"
	TypeRoundEnd        Type = "roundEnd"
	TypeGameEnd         Type = "gameEnd"
	TypePlayAgain       Type = "playAgain"
	TypeTerminateGame   Type = "terminateGame"
)

// Phase of the replicated session.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseWordSelect Phase = "wordSelect"
	PhaseDrawing    Phase = "drawing"
	PhaseRoundEnd   Phase = "roundEnd"
	PhaseGameEnd    Phase = "gameEnd"
)

// Message is the closed set of wire messages. Only types in this package
// implement it.
type Message interface {
	Type() Type
	isMessage()
}

type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	IsHost     bool   `json:"isHost"`
	HasGuessed bool   `json:"hasGuessed"`
}

type Settings struct {
	MaxPlayers         int      `json:"maxPlayers"`
	DrawTimeSeconds    int      `json:"drawTimeSeconds"`
	TotalRounds        int      `json:"totalRounds"`
	HintCount          int      `json:"hintCount"`
	WordChoicesPerTurn int      `json:"wordChoicesPerTurn"`
	Language           string   `json:"language"`
	CustomWords        []string `json:"customWords"`
	CustomWordsOnly    bool     `json:"customWordsOnly"`
}

// Snapshot is the full session view sent to a joining guest. Word is masked
// for the recipient.
type Snapshot struct {
	Phase         Phase    `json:"phase"`
	Round         int      `json:"round"`
	DrawingOrder  []string `json:"drawingOrder"`
	DrawerIndex   int      `json:"drawerIndex"`
	DrawerID      string   `json:"drawerId,omitempty"`
	MaskedWord    string   `json:"maskedWord,omitempty"`
	TimeRemaining int      `json:"timeRemaining"`
	MaxTime       int      `json:"maxTime"`
	Settings      Settings `json:"settings"`
	Players       []Player `json:"players"`
	YouID         string   `json:"youId"`
}

type ScoreDelta struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Delta      int    `json:"delta"`
}

type Standing struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

type PlayerInfo struct {
	Name string `json:"name"`
}

type GameState struct {
	Snapshot
}

type PlayersUpdate struct {
	Players []Player `json:"players"`
}

type SettingsUpdate struct {
	Settings Settings `json:"settings"`
}

// WordSelectPhase announces the drawer; Words is set only in the copy sent to
// the drawer and is null for everyone else.
type WordSelectPhase struct {
	DrawerID     string   `json:"drawerId"`
	Round        int      `json:"round"`
	DrawerIndex  int      `json:"drawerIndex"`
	DrawingOrder []string `json:"drawingOrder"`
	Words        []string `json:"words"`
	TimeLimit    int      `json:"timeLimit"`
}

type WordChosen struct {
	Word string `json:"word"`
}

type YourWord struct {
	Word string `json:"word"`
}

type DrawingStart struct {
	DrawerID     string   `json:"drawerId"`
	Round        int      `json:"round"`
	DrawerIndex  int      `json:"drawerIndex"`
	DrawingOrder []string `json:"drawingOrder"`
	MaskedWord   string   `json:"maskedWord"`
	MaxTime      int      `json:"maxTime"`
}

type TimerUpdate struct {
	Time    int   `json:"time"`
	MaxTime int   `json:"maxTime"`
	Phase   Phase `json:"phase"`
}

type HintReveal struct {
	MaskedWord string `json:"maskedWord"`
}

// Draw carries one drawing operation. From is stamped by the host when
// relaying and is ignored on guest-to-host frames.
type Draw struct {
	From      string            `json:"from,omitempty"`
	Operation drawing.Operation `json:"operation"`
}

type Chat struct {
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}

type CorrectGuess struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

type CloseGuess struct {
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName"`
}

type RoundEnd struct {
	Word   string       `json:"word"`
	Scores []ScoreDelta `json:"scores"`
}

type GameEnd struct {
	Standings []Standing `json:"standings"`
}

type PlayAgain struct {
	Players []Player `json:"players"`
}

type TerminateGame struct {
	Reason string `json:"reason"`
}

func (PlayerInfo) Type() Type      { return TypePlayerInfo }
func (GameState) Type() Type       { return TypeGameState }
func (PlayersUpdate) Type() Type   { return TypePlayersUpdate }
func (SettingsUpdate) Type() Type  { return TypeSettingsUpdate }
func (WordSelectPhase) Type() Type { return TypeWordSelectPhase }
func (WordChosen) Type() Type      { return TypeWordChosen }
func (YourWord) Type() Type        { return TypeYourWord }
func (DrawingStart) Type() Type    { return TypeDrawingStart }
func (TimerUpdate) Type() Type     { return TypeTimerUpdate }
func (HintReveal) Type() Type      { return TypeHintReveal }
func (Draw) Type() Type            { return TypeDraw }
func (Chat) Type() Type            { return TypeChat }
func (CorrectGuess) Type() Type    { return TypeCorrectGuess }
func (CloseGuess) Type() Type      { return TypeCloseGuess }
func (RoundEnd) Type() Type        { return TypeRoundEnd }
func (GameEnd) Type() Type         { return TypeGameEnd }
func (PlayAgain) Type() Type       { return TypePlayAgain }
func (TerminateGame) Type() Type   { return TypeTerminateGame }

func (PlayerInfo) isMessage()      {}
func (GameState) isMessage()       {}
func (PlayersUpdate) isMessage()   {}
func (SettingsUpdate) isMessage()  {}
func (WordSelectPhase) isMessage() {}
func (WordChosen) isMessage()      {}
func (YourWord) isMessage()        {}
func (DrawingStart) isMessage()    {}
func (TimerUpdate) isMessage()     {}
func (HintReveal) isMessage()      {}
func (Draw) isMessage()            {}
func (Chat) isMessage()            {}
func (CorrectGuess) isMessage()    {}
func (CloseGuess) isMessage()      {}
func (RoundEnd) isMessage()        {}
func (GameEnd) isMessage()         {}
func (PlayAgain) isMessage()       {}
func (TerminateGame) isMessage()   {}
