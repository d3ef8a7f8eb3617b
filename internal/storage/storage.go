// /internal/storage/storage.go
package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"server-console/datastore"
	"server-console/internal/game"
)

const (
	keyPlayers  = "players"
	keyBans     = "bans"
	keyHistory  = "cmd_history"
	keyDisabled = "commands_disabled"

	defaultHistoryLimit = 50
)

type Storage struct {
	ds           *datastore.DataStore
	historyLimit int

	// serialises read-modify-write of list records
	mu sync.Mutex
}

type CommandHistoryRecord struct {
	InvocationID string        `json:"invocation_id"`
	CallerID     string        `json:"caller_id"`
	CallerName   string        `json:"caller_name"`
	Source       string        `json:"source"`
	Command      string        `json:"command"`
	Line         string        `json:"line"`
	Error        string        `json:"error,omitempty"`
	Took         time.Duration `json:"took"`
	Datetime     time.Time     `json:"datetime"`
}

func (r CommandHistoryRecord) Failed() bool { return r.Error != "" }

type Options struct {
	Path             string
	HistoryLimit     int
	AutoSaveInterval time.Duration
	Logger           *zap.Logger
}

func New(opts Options) (*Storage, error) {
	cfg := datastore.DefaultConfig(opts.Path)
	if opts.AutoSaveInterval > 0 {
		cfg.AutoSaveInterval = opts.AutoSaveInterval
	}
	if opts.Logger != nil {
		cfg.Logger = opts.Logger.Named("datastore")
	}

	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}

	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &Storage{ds: ds, historyLimit: limit}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Stats reports the backing file and what it holds.
func (s *Storage) Stats() datastore.Stats {
	return s.ds.Stats()
}

func (s *Storage) Save() error {
	return s.ds.Save()
}

// load decodes key into out, leaving out untouched when the key is absent.
func (s *Storage) load(key string, out any) error {
	err := s.ds.Get(key, out)
	if errors.Is(err, datastore.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Storage) LoadPlayers() ([]game.Player, error) {
	var players []game.Player
	if err := s.load(keyPlayers, &players); err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	return players, nil
}

func (s *Storage) SavePlayers(players []game.Player) error {
	return s.ds.Set(keyPlayers, players)
}

func (s *Storage) LoadBans() ([]game.Ban, error) {
	var bans []game.Ban
	if err := s.load(keyBans, &bans); err != nil {
		return nil, fmt.Errorf("load bans: %w", err)
	}
	return bans, nil
}

func (s *Storage) SaveBans(bans []game.Ban) error {
	return s.ds.Set(keyBans, bans)
}

// AppendCommandToHistory appends rec, keeping only the newest records up to
// the history limit.
func (s *Storage) AppendCommandToHistory(rec CommandHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []CommandHistoryRecord
	if err := s.load(keyHistory, &list); err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	list = append(list, rec)
	if len(list) > s.historyLimit {
		list = list[len(list)-s.historyLimit:]
	}
	return s.ds.Set(keyHistory, list)
}

// FetchCommandHistory returns up to n of the most recent records, oldest
// first. n <= 0 returns everything kept.
func (s *Storage) FetchCommandHistory(n int) ([]CommandHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []CommandHistoryRecord
	if err := s.load(keyHistory, &list); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if n > 0 && len(list) > n {
		list = list[len(list)-n:]
	}
	return list, nil
}
