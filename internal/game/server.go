// /internal/game/server.go
package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrBanned    = errors.New("player is banned")
	ErrNotBanned = errors.New("name is not banned")
	ErrBadAmount = errors.New("amount must be positive")
)

const broadcastLogLimit = 100

type Ban struct {
	Name    string    `json:"name"`
	Reason  string    `json:"reason,omitempty"`
	By      string    `json:"by"`
	Created time.Time `json:"created"`
	Until   time.Time `json:"until,omitempty"` // zero means permanent
}

func (b Ban) Permanent() bool { return b.Until.IsZero() }

func (b Ban) Expired(now time.Time) bool {
	return !b.Permanent() && !now.Before(b.Until)
}

// Broadcast is one message sent to players.
type Broadcast struct {
	From       string    `json:"from"`
	Channel    Channel   `json:"channel"`
	Text       string    `json:"text"`
	At         time.Time `json:"at"`
	Recipients int       `json:"recipients"`
}

// Spawn is an entity placed into the world by an operator.
type Spawn struct {
	ID       int
	Kind     string
	Position Vec3
	At       time.Time
}

// Store persists server state. It is satisfied by *storage.Storage.
type Store interface {
	SavePlayers(players []Player) error
	SaveBans(bans []Ban) error
}

// Server is the in-process game server the console administers.
type Server struct {
	Roster *Roster

	mu         sync.Mutex
	bans       map[string]Ban // lower-cased name
	broadcasts []Broadcast
	spawns     []Spawn

	store     Store
	persistMu sync.Mutex // orders snapshot and save
	log       *zap.Logger
	now       func() time.Time
	started   time.Time
}

type Option func(*Server)

func WithStore(s Store) Option { return func(srv *Server) { srv.store = s } }

func WithLogger(l *zap.Logger) Option { return func(srv *Server) { srv.log = l } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(srv *Server) { srv.now = now } }

func NewServer(opts ...Option) *Server {
	s := &Server{
		Roster: NewRoster(),
		bans:   make(map[string]Ban),
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	return s
}

// Restore loads persisted state. Expired bans are dropped.
func (s *Server) Restore(players []Player, bans []Ban) {
	s.Roster.Restore(players)

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bans = make(map[string]Ban, len(bans))
	for _, b := range bans {
		if !b.Expired(now) {
			s.bans[strings.ToLower(b.Name)] = b
		}
	}
}

func (s *Server) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.started)
}

func (s *Server) persistPlayers() {
	if s.store == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.store.SavePlayers(s.Roster.List()); err != nil {
		s.log.Warn("failed to persist players", zap.Error(err))
	}
}

func (s *Server) persistBans() {
	if s.store == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.store.SaveBans(s.Bans()); err != nil {
		s.log.Warn("failed to persist bans", zap.Error(err))
	}
}

// Join connects a player unless the name is banned.
func (s *Server) Join(name string) (Player, error) {
	if b, banned := s.BanFor(name); banned {
		return Player{}, fmt.Errorf("%w: %s", ErrBanned, b.Name)
	}
	p, err := s.Roster.Add(name, s.now())
	if err != nil {
		return Player{}, err
	}
	s.log.Info("player joined", zap.String("player", p.Name), zap.String("id", p.ID))
	s.persistPlayers()
	return p, nil
}

func (s *Server) Kick(id, reason string) (Player, error) {
	p, err := s.Roster.Remove(id)
	if err != nil {
		return Player{}, err
	}
	s.log.Info("player kicked", zap.String("player", p.Name), zap.String("reason", reason))
	s.persistPlayers()
	return p, nil
}

// Ban bans name for d (0 = permanently) and disconnects the player if online.
func (s *Server) Ban(name, by string, d time.Duration, reason string) (Ban, bool) {
	now := s.now()
	b := Ban{Name: name, Reason: reason, By: by, Created: now}
	if d > 0 {
		b.Until = now.Add(d)
	}

	s.mu.Lock()
	s.bans[strings.ToLower(name)] = b
	s.mu.Unlock()
	s.persistBans()

	kicked := false
	if p, ok := s.Roster.FindByName(name); ok {
		if _, err := s.Kick(p.ID, "banned: "+reason); err == nil {
			kicked = true
		}
	}
	s.log.Info("name banned", zap.String("name", name), zap.Duration("duration", d), zap.Bool("kicked", kicked))
	return b, kicked
}

func (s *Server) Unban(name string) error {
	s.mu.Lock()
	key := strings.ToLower(name)
	_, ok := s.bans[key]
	delete(s.bans, key)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotBanned, name)
	}
	s.persistBans()
	return nil
}

// BanFor returns the active ban on name, pruning it if it has expired.
func (s *Server) BanFor(name string) (Ban, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(name)
	b, ok := s.bans[key]
	if !ok {
		return Ban{}, false
	}
	if b.Expired(s.now()) {
		delete(s.bans, key)
		return Ban{}, false
	}
	return b, true
}

// PruneBans removes expired bans and returns how many were removed.
func (s *Server) PruneBans() int {
	now := s.now()
	s.mu.Lock()
	n := 0
	for key, b := range s.bans {
		if b.Expired(now) {
			delete(s.bans, key)
			n++
		}
	}
	s.mu.Unlock()

	if n > 0 {
		s.persistBans()
	}
	return n
}

// Bans returns the active bans ordered by name.
func (s *Server) Bans() []Ban {
	now := s.now()
	s.mu.Lock()
	out := make([]Ban, 0, len(s.bans))
	for _, b := range s.bans {
		if !b.Expired(now) {
			out = append(out, b)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Say sends text on ch to every player not muted on it.
func (s *Server) Say(from, text string, ch Channel) Broadcast {
	n := 0
	for _, p := range s.Roster.List() {
		if p.Muted&ch == 0 {
			n++
		}
	}

	b := Broadcast{From: from, Channel: ch, Text: text, At: s.now(), Recipients: n}
	s.mu.Lock()
	s.broadcasts = append(s.broadcasts, b)
	if len(s.broadcasts) > broadcastLogLimit {
		s.broadcasts = s.broadcasts[len(s.broadcasts)-broadcastLogLimit:]
	}
	s.mu.Unlock()

	s.log.Debug("broadcast", zap.String("from", from), zap.Stringer("channel", ch), zap.String("text", text))
	return b
}

// Broadcasts returns up to n of the most recent broadcasts, oldest first.
func (s *Server) Broadcasts(n int) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.broadcasts) {
		n = len(s.broadcasts)
	}
	return append([]Broadcast(nil), s.broadcasts[len(s.broadcasts)-n:]...)
}

func (s *Server) SetRole(id string, role Role) (Player, error) {
	p, err := s.Roster.Update(id, func(p *Player) { p.Role = role })
	if err == nil {
		s.persistPlayers()
	}
	return p, err
}

// SetHealth clamps hp to [0, MaxHealth].
func (s *Server) SetHealth(id string, hp int) (Player, error) {
	hp = max(0, min(hp, MaxHealth))
	p, err := s.Roster.Update(id, func(p *Player) { p.Health = hp })
	if err == nil {
		s.persistPlayers()
	}
	return p, err
}

// Give adds count of item to the inventory of one player.
func (s *Server) Give(id, item string, count int) (Player, error) {
	if count <= 0 {
		return Player{}, fmt.Errorf("%w: %d", ErrBadAmount, count)
	}
	item = strings.ToLower(item)
	p, err := s.Roster.Update(id, func(p *Player) {
		if p.Inventory == nil {
			p.Inventory = make(map[string]int)
		}
		p.Inventory[item] += count
	})
	if err == nil {
		s.persistPlayers()
	}
	return p, err
}

func (s *Server) Teleport(id string, pos Vec3) (Player, error) {
	p, err := s.Roster.Update(id, func(p *Player) { p.Position = pos })
	if err == nil {
		s.persistPlayers()
	}
	return p, err
}

// Mute replaces the set of channels the player is muted on. 0 unmutes.
func (s *Server) Mute(id string, ch Channel) (Player, error) {
	p, err := s.Roster.Update(id, func(p *Player) { p.Muted = ch })
	if err == nil {
		s.persistPlayers()
	}
	return p, err
}

// SpawnEntity places kind at pos, or at the world origin when pos is nil.
func (s *Server) SpawnEntity(kind string, pos *Vec3) Spawn {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := Spawn{ID: len(s.spawns) + 1, Kind: strings.ToLower(kind), At: s.now()}
	if pos != nil {
		sp.Position = *pos
	}
	s.spawns = append(s.spawns, sp)
	return sp
}

// Restart clears spawned entities and resets the uptime. Players stay
// connected.
func (s *Server) Restart() {
	s.mu.Lock()
	s.spawns = nil
	s.started = s.now()
	s.mu.Unlock()
	s.log.Info("server restarted", zap.Int("players", s.Roster.Len()))
}

func (s *Server) Spawns() []Spawn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Spawn(nil), s.spawns...)
}
