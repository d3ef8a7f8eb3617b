package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"server-console/internal/game"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStorage(t *testing.T, limit int) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "console.json")
	s, err := New(Options{Path: path, HistoryLimit: limit})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestEmptyStore(t *testing.T) {
	s, _ := newStorage(t, 5)

	players, err := s.LoadPlayers()
	require.NoError(t, err)
	assert.Empty(t, players)

	bans, err := s.LoadBans()
	require.NoError(t, err)
	assert.Empty(t, bans)

	hist, err := s.FetchCommandHistory(0)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestPlayersAndBansSurviveReopen(t *testing.T) {
	s, path := newStorage(t, 5)

	require.NoError(t, s.SavePlayers([]game.Player{{ID: "3", Name: "Alice", Role: game.RoleHunter, Position: game.Vec3{X: 1}}}))
	require.NoError(t, s.SaveBans([]game.Ban{{Name: "Mallory", By: "console"}}))
	require.NoError(t, s.Close())

	again, err := New(Options{Path: path})
	require.NoError(t, err)
	defer again.Close()

	players, err := again.LoadPlayers()
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Alice", players[0].Name)
	assert.Equal(t, game.RoleHunter, players[0].Role)
	assert.Equal(t, 1.0, players[0].Position.X)

	bans, err := again.LoadBans()
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.True(t, bans[0].Permanent())
}

func TestHistoryLimit(t *testing.T) {
	s, _ := newStorage(t, 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendCommandToHistory(CommandHistoryRecord{Command: fmt.Sprintf("c%d", i)}))
	}

	all, err := s.FetchCommandHistory(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c2", all[0].Command)
	assert.Equal(t, "c4", all[2].Command)

	last, err := s.FetchCommandHistory(1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "c4", last[0].Command)
}

func TestHistoryConcurrentAppend(t *testing.T) {
	s, _ := newStorage(t, 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.AppendCommandToHistory(CommandHistoryRecord{Command: fmt.Sprint(i)}))
		}(i)
	}
	wg.Wait()

	all, err := s.FetchCommandHistory(0)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

func TestCategoryToggle(t *testing.T) {
	s, _ := newStorage(t, 3)

	require.NoError(t, s.DisableCategory("World"))
	require.NoError(t, s.DisableCategory("world"))
	require.NoError(t, s.DisableCategory("Moderation"))

	off, err := s.IsCategoryDisabled("WORLD")
	require.NoError(t, err)
	assert.True(t, off)

	list, err := s.DisabledCategories()
	require.NoError(t, err)
	assert.Equal(t, []string{"moderation", "world"}, list)

	require.NoError(t, s.EnableCategory("World"))
	off, err = s.IsCategoryDisabled("world")
	require.NoError(t, err)
	assert.False(t, off)
}

type countingPruner struct{ calls atomic.Int32 }

func (c *countingPruner) PruneBans() int {
	c.calls.Add(1)
	return 1
}

func TestRunBanCleaner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &countingPruner{}

	done := make(chan struct{})
	go func() {
		RunBanCleaner(ctx, p, 5*time.Millisecond, nil)
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestStats(t *testing.T) {
	s, path := newStorage(t, 5)

	require.NoError(t, s.SaveBans([]game.Ban{{Name: "trent", By: "operator"}}))
	require.NoError(t, s.AppendCommandToHistory(CommandHistoryRecord{Command: "ban", Line: "ban trent"}))

	st := s.Stats()
	assert.Equal(t, path, st.FilePath)
	assert.Equal(t, []string{keyBans, keyHistory}, st.Keys)
	assert.Positive(t, st.MemorySize)
}
