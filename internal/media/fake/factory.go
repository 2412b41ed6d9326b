// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fake

import (
	"sync"

	"github.com/ManuGH/playresilience/internal/media"
)

// Factory builds fake players and keeps every one it built.
type Factory struct {
	mu sync.Mutex

	// Err makes Build fail.
	Err error
	// Configure, when set, scripts each player before it is returned.
	Configure func(*Player)

	players []*Player
}

// Build implements media.PlayerFactory.
func (f *Factory) Build(spec media.PlayerSpec) (media.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	p := NewPlayer(spec)
	if f.Configure != nil {
		f.Configure(p)
	}
	f.players = append(f.players, p)
	return p, nil
}

// Players returns every player built so far, oldest first.
func (f *Factory) Players() []*Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Player(nil), f.players...)
}

// Latest returns the most recently built player, or nil.
func (f *Factory) Latest() *Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.players) == 0 {
		return nil
	}
	return f.players[len(f.players)-1]
}
