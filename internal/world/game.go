package world

import "sync"

// GamePhase is the coarse play state shown to the participant.
type GamePhase int

const (
	GameIdle GamePhase = iota
	GamePlaying
	GameCaught
	GameWon
)

func (g GamePhase) String() string {
	switch g {
	case GameIdle:
		return "Idle"
	case GamePlaying:
		return "Playing"
	case GameCaught:
		return "Caught"
	case GameWon:
		return "Won"
	default:
		return "Unknown"
	}
}

// Game tracks the local round: started, caught by the agent, or escaped.
// State transitions post system notices to the chat log.
type Game struct {
	mu     sync.Mutex
	phase  GamePhase
	hasKey bool
	chat   *ChatLog
}

func NewGame(chat *ChatLog) *Game {
	return &Game{chat: chat}
}

func (g *Game) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.phase = GamePlaying
	g.hasKey = false
}

// Stop pauses play without an outcome.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == GamePlaying {
		g.phase = GameIdle
	}
}

// Catch ends play. Only the first call while playing has an effect; it
// reports whether this call was that one.
func (g *Game) Catch() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != GamePlaying {
		return false
	}
	g.phase = GameCaught
	if g.chat != nil {
		g.chat.Notice("You were caught!", ColorAlert)
	}
	return true
}

// PickUpKey marks the key as held. Reports false if it was already held or
// play is not running.
func (g *Game) PickUpKey() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != GamePlaying || g.hasKey {
		return false
	}
	g.hasKey = true
	if g.chat != nil {
		g.chat.Notice("You found the Artifact!", ColorLoot)
	}
	return true
}

// Win ends play successfully. Requires the key.
func (g *Game) Win() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != GamePlaying || !g.hasKey {
		return false
	}
	g.phase = GameWon
	return true
}

// Reset returns to Idle and clears the key.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.phase = GameIdle
	g.hasKey = false
}

func (g *Game) Playing() bool {
	return g.Phase() == GamePlaying
}

func (g *Game) Phase() GamePhase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *Game) HasKey() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hasKey
}
