// /internal/game/roster.go
package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/tidwall/btree"

	"server-console/pkg/args"
)

// PlayerKind is the reference kind the roster resolves.
const PlayerKind = "player"

var (
	ErrNoSuchPlayer = errors.New("no such player")
	ErrNameTaken    = errors.New("player name already in use")
	ErrInvalidName  = errors.New("invalid player name")
)

type Player struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Role      Role           `json:"role"`
	Health    int            `json:"health"`
	Position  Vec3           `json:"position"`
	Muted     Channel        `json:"muted"`
	Inventory map[string]int `json:"inventory,omitempty"`
	JoinedAt  time.Time      `json:"joined_at"`
}

func (p Player) EntityID() string   { return p.ID }
func (p Player) EntityName() string { return p.Name }

func (p Player) String() string { return fmt.Sprintf("%s (#%s)", p.Name, p.ID) }

func (p *Player) clone() Player {
	c := *p
	if p.Inventory != nil {
		c.Inventory = make(map[string]int, len(p.Inventory))
		for k, v := range p.Inventory {
			c.Inventory[k] = v
		}
	}
	return c
}

const MaxHealth = 100

// Roster is the set of connected players, indexed by ID and by name. It
// implements args.Resolver for the "player" kind. All methods return copies;
// changes go through Update.
type Roster struct {
	mu     sync.RWMutex
	byName *btree.Map[string, *Player] // lower-cased name
	byID   map[string]*Player
	nextID int
}

func NewRoster() *Roster {
	return &Roster{
		byName: btree.NewMap[string, *Player](0),
		byID:   make(map[string]*Player),
		nextID: 1,
	}
}

func validName(name string) bool {
	if name == "" || name == "*" {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) || r == '"' || r == ':' || r == '(' || r == ')' || r == ',' {
			return false
		}
	}
	return true
}

// Add connects a new player with a fresh numeric ID.
func (r *Roster) Add(name string, now time.Time) (Player, error) {
	if !validName(name) {
		return Player{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if _, taken := r.byName.Get(key); taken {
		return Player{}, fmt.Errorf("%w: %s", ErrNameTaken, name)
	}

	p := &Player{
		ID:       strconv.Itoa(r.nextID),
		Name:     name,
		Role:     RoleSurvivor,
		Health:   MaxHealth,
		JoinedAt: now,
	}
	r.nextID++
	r.insert(p)
	return p.clone(), nil
}

func (r *Roster) insert(p *Player) {
	r.byName.Set(strings.ToLower(p.Name), p)
	r.byID[p.ID] = p
}

// Restore replaces the roster with players, keeping their IDs.
func (r *Roster) Restore(players []Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName.Clear()
	r.byID = make(map[string]*Player, len(players))
	r.nextID = 1
	for i := range players {
		p := players[i].clone()
		r.insert(&p)
		if n, err := strconv.Atoi(p.ID); err == nil && n >= r.nextID {
			r.nextID = n + 1
		}
	}
}

func (r *Roster) Remove(id string) (Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return Player{}, fmt.Errorf("%w: #%s", ErrNoSuchPlayer, id)
	}
	delete(r.byID, id)
	r.byName.Delete(strings.ToLower(p.Name))
	return p.clone(), nil
}

func (r *Roster) Get(id string) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return Player{}, false
	}
	return p.clone(), true
}

// FindByName returns the player whose name matches exactly, ignoring case.
func (r *Roster) FindByName(name string) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName.Get(strings.ToLower(name))
	if !ok {
		return Player{}, false
	}
	return p.clone(), true
}

// Update applies fn to the player with the given ID under the roster lock.
// fn must not rename the player.
func (r *Roster) Update(id string, fn func(p *Player)) (Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return Player{}, fmt.Errorf("%w: #%s", ErrNoSuchPlayer, id)
	}
	fn(p)
	return p.clone(), nil
}

// List returns all players ordered by name.
func (r *Roster) List() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Player, 0, r.byName.Len())
	r.byName.Scan(func(_ string, p *Player) bool {
		out = append(out, p.clone())
		return true
	})
	return out
}

func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// ResolveEntity finds a player by ID, then exact name, then unique name
// prefix, then unique name substring. Name matching ignores case.
func (r *Roster) ResolveEntity(kind, ident string) (args.Entity, bool) {
	if kind != PlayerKind || ident == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.byID[strings.TrimPrefix(ident, "#")]; ok {
		return p.clone(), true
	}

	key := strings.ToLower(ident)
	if p, ok := r.byName.Get(key); ok {
		return p.clone(), true
	}

	var found []*Player
	r.byName.Ascend(key, func(name string, p *Player) bool {
		if !strings.HasPrefix(name, key) {
			return false
		}
		found = append(found, p)
		return len(found) < 2
	})
	if len(found) == 1 {
		return found[0].clone(), true
	}
	if len(found) > 1 {
		return nil, false
	}

	r.byName.Scan(func(name string, p *Player) bool {
		if strings.Contains(name, key) {
			found = append(found, p)
		}
		return len(found) < 2
	})
	if len(found) == 1 {
		return found[0].clone(), true
	}
	return nil, false
}

// AllEntities returns every player ordered by name.
func (r *Roster) AllEntities(kind string) []args.Entity {
	if kind != PlayerKind {
		return nil
	}
	players := r.List()
	out := make([]args.Entity, len(players))
	for i, p := range players {
		out[i] = p
	}
	return out
}
