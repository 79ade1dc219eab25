package system

import (
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	coresys "github.com/strangerhq/stranger/internal/core/system"
	"github.com/strangerhq/stranger/internal/data"
	"github.com/strangerhq/stranger/internal/world"
)

// Bot is a local-only ambient wanderer. Bots never enter Presence and are
// never sent over the network.
type Bot struct {
	Name     string
	Color    string
	Position mgl64.Vec3
	Heading  float64

	target       mgl64.Vec3
	chatInterval time.Duration
	chatAcc      time.Duration
}

// BotSystem moves the ambient bots between random points and lets them chat
// now and then while a round is being played. Phase 2 (Update).
type BotSystem struct {
	bots    []*Bot
	cfg     data.BotsEntry
	chatter bool
	game    *world.Game
	chat    *world.ChatLog
	rng     *rand.Rand
}

func NewBotSystem(cfg data.BotsEntry, chatter bool, game *world.Game, chat *world.ChatLog, rng *rand.Rand) *BotSystem {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &BotSystem{cfg: cfg, chatter: chatter, game: game, chat: chat, rng: rng}
	for _, p := range cfg.Profiles {
		start := mgl64.Vec3(p.Start)
		s.bots = append(s.bots, &Bot{
			Name:         p.Name,
			Color:        p.Color,
			Position:     start,
			target:       start,
			chatInterval: cfg.ChatMin + time.Duration(rng.Float64()*float64(cfg.ChatJitter)),
		})
	}
	return s
}

func (s *BotSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *BotSystem) Update(dt time.Duration) {
	if !s.game.Playing() {
		return
	}
	for _, b := range s.bots {
		s.wander(b, dt)
		if s.chatter {
			s.maybeChat(b, dt)
		}
	}
}

func (s *BotSystem) wander(b *Bot, dt time.Duration) {
	dir := b.target.Sub(b.Position)
	if dir.Len() < s.cfg.ArriveRadius {
		b.target = mgl64.Vec3{
			(s.rng.Float64() - 0.5) * s.cfg.Area[0],
			b.Position[1],
			(s.rng.Float64() - 0.5) * s.cfg.Area[1],
		}
		return
	}
	step := s.cfg.Speed * dt.Seconds()
	if step >= dir.Len() {
		b.Position = b.target
	} else {
		b.Position = b.Position.Add(dir.Normalize().Mul(step))
	}
	b.Heading = angleY(dir)
}

func (s *BotSystem) maybeChat(b *Bot, dt time.Duration) {
	if b.chatInterval <= 0 || len(s.cfg.Phrases) == 0 {
		return
	}
	b.chatAcc += dt
	if b.chatAcc < b.chatInterval {
		return
	}
	b.chatAcc -= b.chatInterval
	if s.rng.Float64() < s.cfg.ChatChance {
		s.chat.Post(b.Name, s.cfg.Phrases[s.rng.Intn(len(s.cfg.Phrases))], b.Color)
	}
}

// Bots returns copies of the bots for rendering.
func (s *BotSystem) Bots() []Bot {
	out := make([]Bot, len(s.bots))
	for i, b := range s.bots {
		out[i] = *b
	}
	return out
}

// angleY is the rotation about Y that faces along v.
func angleY(v mgl64.Vec3) float64 {
	return math.Atan2(v[0], v[2])
}
