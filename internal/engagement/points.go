package engagement

import (
	"errors"
	"sort"
	"sync"
)

// PointsStore persists balances so restarts keep the leaderboard intact.
type PointsStore interface {
	AddPoints(user string, delta int64) error
	Balances() (map[string]int64, error)
}

// Points tracks community reward balances, hydrated from and written through
// to the store. Balances never go negative.
type Points struct {
	mu       sync.Mutex
	balances map[string]int64
	store    PointsStore
}

// Entry is one leaderboard row.
type Entry struct {
	User   string
	Points int64
}

// NewPoints builds the account; store may be nil for in-memory use.
func NewPoints(store PointsStore) (*Points, error) {
	p := &Points{balances: make(map[string]int64), store: store}
	if store != nil {
		balances, err := store.Balances()
		if err != nil {
			return nil, err
		}
		for user, v := range balances {
			p.balances[user] = v
		}
	}
	return p, nil
}

// Award credits points to a user. The user must be known; mentions without an
// author expansion would otherwise pool rewards under an empty name.
func (p *Points) Award(user string, amount int64) error {
	if user == "" {
		return errors.New("user must not be empty")
	}
	if amount <= 0 {
		return errors.New("amount must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store != nil {
		if err := p.store.AddPoints(user, amount); err != nil {
			return err
		}
	}
	p.balances[user] += amount
	return nil
}

// Redeem debits points; it fails without mutating state when the balance is short.
func (p *Points) Redeem(user string, amount int64) error {
	if amount <= 0 {
		return errors.New("amount must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balances[user] < amount {
		return errors.New("insufficient points")
	}
	if p.store != nil {
		if err := p.store.AddPoints(user, -amount); err != nil {
			return err
		}
	}
	p.balances[user] -= amount
	return nil
}

// Balance returns the user's current points.
func (p *Points) Balance(user string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[user]
}

// Leaderboard returns the top n users by balance, descending; ties break by name.
func (p *Points) Leaderboard(n int) []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := make([]Entry, 0, len(p.balances))
	for user, v := range p.balances {
		if v > 0 {
			entries = append(entries, Entry{User: user, Points: v})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].User < entries[j].User
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Snapshot returns a copy of every balance.
func (p *Points) Snapshot() map[string]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int64, len(p.balances))
	for user, v := range p.balances {
		out[user] = v
	}
	return out
}
