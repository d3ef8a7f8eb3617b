package commands

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"server-console/internal/config"
	"server-console/internal/game"
	"server-console/internal/middleware"
	"server-console/internal/permissions"
	"server-console/internal/storage"
	"server-console/pkg/args"
	"server-console/pkg/cmd"
	"server-console/pkg/jobmgr"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	console = cmd.Caller{ID: "local", Name: "operator", Source: permissions.SourceConsole}
	remote  = cmd.Caller{ID: "99", Name: "guest", Source: "discord"}
)

type harness struct {
	env  *Env
	disp *cmd.Dispatcher
}

func newHarness(t *testing.T, players ...string) *harness {
	t.Helper()

	st, err := storage.New(storage.Options{Path: filepath.Join(t.TempDir(), "console.json"), HistoryLimit: 20})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv := game.NewServer(game.WithStore(st))
	for _, p := range players {
		_, err := srv.Join(p)
		require.NoError(t, err)
	}

	jobs := jobmgr.NewManager(nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = jobs.Shutdown(ctx)
	})

	env := &Env{
		Server:  srv,
		Storage: st,
		Jobs:    jobs,
		Perms:   &permissions.Table{},
		Tick:    time.Millisecond,
	}
	require.NoError(t, Install(env))

	disp := cmd.NewDispatcher(env.Registry,
		cmd.WithResolver(srv.Roster),
		cmd.WithJobs(jobs, time.Minute),
		cmd.WithMiddleware(
			middleware.WithCategoryCheck(st, nil),
			middleware.WithPermissionCheck(env.Perms),
			middleware.WithCommandLogger(st, nil),
		),
	)
	return &harness{env: env, disp: disp}
}

type replies struct {
	mu   sync.Mutex
	msgs []string
}

func (r *replies) add(msg string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *replies) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func (h *harness) runAs(caller cmd.Caller, line string) (string, error) {
	r := &replies{}
	err := h.disp.Dispatch(context.Background(), caller, line, r.add)
	return strings.Join(r.all(), "\n"), err
}

func (h *harness) run(t *testing.T, line string) string {
	t.Helper()
	out, err := h.runAs(console, line)
	require.NoError(t, err, out)
	return out
}

func TestInstallRegistersEverything(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, len(All()), h.env.Registry.Len())

	for _, c := range All() {
		d := cmd.Describe(h.env.Registry.Get(c.Name))
		require.NotNil(t, d, c.Name)
		assert.NotEmpty(t, d.Description, c.Name)
		_, known := config.CategoryWeights[d.Category]
		assert.True(t, known, "%s has category %q", c.Name, d.Category)
		if d.Permission != "" {
			_, err := permissions.ParseLevel(d.Permission)
			assert.NoError(t, err, c.Name)
		}
	}
}

func TestAllOrderedByCategory(t *testing.T) {
	list := All()
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, config.CategoryWeight(list[i-1].Category), config.CategoryWeight(list[i].Category))
	}
	assert.Equal(t, "help", list[0].Name)
}

func TestDescriptorRejectsBadSchema(t *testing.T) {
	c := &Command{
		Name:    "broken",
		Args:    []args.ArgSpec{{Name: "msg", Type: args.Text(), Rest: true}, {Name: "n", Type: args.Int()}},
		Handler: func(context.Context, *Env, *cmd.Invocation) error { return nil },
	}
	_, err := c.Descriptor(&Env{})
	assert.ErrorIs(t, err, args.ErrInvalidSchema)
}

func TestHelp(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "help")
	assert.True(t, strings.HasPrefix(out, config.CategoryInformation))
	assert.Contains(t, out, "kick <target> <reason...> (moderator)")
	assert.Contains(t, out, "teleport <target> <position>")
	assert.Less(t, strings.Index(out, config.CategoryPlayers), strings.Index(out, config.CategoryUtilities))

	out = h.run(t, "help tp")
	assert.Contains(t, out, "teleport <target> <position>")
	assert.Contains(t, out, "Aliases: tp")
	assert.Contains(t, out, "vec3")

	out = h.run(t, "help mute")
	assert.Contains(t, out, "global,team,whisper")

	out, err := h.runAs(console, "help nothing")
	assert.ErrorIs(t, err, cmd.ErrUnknownCommand)
	assert.Contains(t, out, "nothing")
}

func TestAbout(t *testing.T) {
	h := newHarness(t, "Alice")
	out := h.run(t, "about")
	assert.Contains(t, out, "Players online: 1")
	assert.Contains(t, out, "Uptime:")
	assert.Regexp(t, `Storage: .*console\.json \(\d+ records, \d+ bytes\)`, out)
}

func TestPlayersAndJoin(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "No players online.", h.run(t, "players"))

	assert.Equal(t, "Alice (#1) joined.", h.run(t, "join Alice"))
	h.run(t, "join Bob")

	out := h.run(t, "who")
	assert.Contains(t, out, "2 player(s) online")
	assert.Contains(t, out, "Alice")

	_, err := h.runAs(console, "join alice")
	assert.ErrorIs(t, err, game.ErrNameTaken)
}

func TestKick(t *testing.T) {
	h := newHarness(t, "Alice", "Bob")

	assert.Equal(t, "Kicked Alice (#1): spamming the chat", h.run(t, `kick ali spamming the chat`))
	assert.Equal(t, "Kicked Bob (#2).", h.run(t, `k #2`))
	assert.Equal(t, 0, h.env.Server.Roster.Len())

	out, err := h.runAs(console, "kick Nobody")
	require.Error(t, err)
	assert.Contains(t, out, "Usage: kick <target> <reason...>")
}

func TestBanAndUnban(t *testing.T) {
	h := newHarness(t, "Mallory")

	out := h.run(t, `ban Mallory 30 griefing spawn`)
	assert.Equal(t, "Banned Mallory for 30m: griefing spawn. They were online and have been kicked.", out)

	out = h.run(t, "bans")
	assert.Contains(t, out, "Mallory (until ")
	assert.Contains(t, out, ": griefing spawn")

	_, err := h.runAs(console, "join Mallory")
	assert.ErrorIs(t, err, game.ErrBanned)

	assert.Equal(t, "Banned Trent permanently.", h.run(t, "ban Trent"))
	assert.Equal(t, "Unbanned trent.", h.run(t, "unban trent"))
	_, err = h.runAs(console, "unban trent")
	assert.ErrorIs(t, err, game.ErrNotBanned)

	out, err = h.runAs(console, "ban Eve soon")
	assert.ErrorIs(t, err, args.ErrCoercion)
	assert.Contains(t, out, "Usage: ban <target> [minutes] <reason...>")
}

func TestSetRole(t *testing.T) {
	h := newHarness(t, "Alice")

	assert.Equal(t, "Alice (#1) is now a hunter.", h.run(t, "setrole alice HUNTER"))
	p, _ := h.env.Server.Roster.Get("1")
	assert.Equal(t, game.MaxHealth, p.Health)

	assert.Equal(t, "Alice (#1) is now a spectator with 40 health.", h.run(t, "role alice spectator health:40"))
	assert.Equal(t, "Alice (#1) is now a survivor.", h.run(t, "setrole target:alice role:0 health:null"))

	out, err := h.runAs(console, "setrole alice wizard")
	require.Error(t, err)
	assert.Contains(t, out, "survivor")
}

func TestGiveToEveryone(t *testing.T) {
	h := newHarness(t, "Carol", "Alice", "Bob")

	assert.Equal(t, "Gave 3 medkit to Alice, Bob, Carol.", h.run(t, "give * medkit 3"))
	assert.Equal(t, "Gave 1 ammo to Alice, Bob.", h.run(t, "give (alice,bob) ammo"))

	for _, p := range h.env.Server.Roster.List() {
		assert.Equal(t, 3, p.Inventory["medkit"], p.Name)
	}
	p, _ := h.env.Server.Roster.FindByName("alice")
	assert.Equal(t, 1, p.Inventory["ammo"])

	_, err := h.runAs(console, "give * ammo 0")
	assert.ErrorIs(t, err, game.ErrBadAmount)
}

func TestGiveEmptyRoster(t *testing.T) {
	h := newHarness(t)
	_, err := h.runAs(console, "give * ammo")
	assert.ErrorIs(t, err, errNoPlayers)
}

func TestTeleport(t *testing.T) {
	h := newHarness(t, "Alice")

	assert.Equal(t, "Teleported Alice (#1) to (10 -2 3.5).", h.run(t, "tp alice (10 -2 3.5)"))
	assert.Equal(t, "Teleported Alice (#1) to (1 2 3).", h.run(t, "teleport alice 1,2,3"))

	out, err := h.runAs(console, "tp alice (1 2)")
	require.Error(t, err)
	assert.Contains(t, out, "Usage: teleport <target> <position>")
}

func TestSpawn(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "Spawned zombie #1 at (0 0 0).", h.run(t, "spawn Zombie"))
	assert.Equal(t, "Spawned crate #2 at (4 5 6).", h.run(t, "spawn crate (4 5 6)"))
	assert.Equal(t, "Spawned crate #3 at (0 0 0).", h.run(t, "spawn crate null"))
}

func TestMuteAndWhisper(t *testing.T) {
	h := newHarness(t, "Alice", "Bob")

	assert.Equal(t, "Muted Alice on global|team|whisper.", h.run(t, "mute alice"))
	assert.Equal(t, "Muted Alice, Bob on global|team.", h.run(t, "mute * global|team"))

	assert.Equal(t, "Sent to 0 player(s).", h.run(t, "say hello everyone"))
	assert.Equal(t, "Whispered to Bob (#2).", h.run(t, "w bob are you there?"))

	h.run(t, "mute bob whisper")
	_, err := h.runAs(console, "whisper bob hi")
	assert.Error(t, err)

	assert.Equal(t, "Unmuted Alice, Bob.", h.run(t, "unmute *"))
	assert.Equal(t, "Sent to 2 player(s).", h.run(t, `say "quoted words" stay as typed`))

	last := h.env.Server.Broadcasts(1)
	require.Len(t, last, 1)
	assert.Equal(t, "quoted words stay as typed", last[0].Text)
}

func TestEchoIsRaw(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, `a:b "c d" (e`, h.run(t, `echo a:b "c d" (e`))
	assert.Equal(t, "(nothing to echo)", h.run(t, "echo"))
}

func TestHistory(t *testing.T) {
	h := newHarness(t, "Alice")
	h.run(t, "players")
	_, _ = h.runAs(console, "kick nobody")

	out := h.run(t, "history 2")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "operator@console  players  [ok]")
	assert.Contains(t, lines[1], "kick nobody  [failed]")

	_, err := h.runAs(console, "history 0")
	assert.Error(t, err)
}

func TestPermissions(t *testing.T) {
	h := newHarness(t, "Alice")

	out, err := h.runAs(remote, "kick alice")
	assert.ErrorIs(t, err, middleware.ErrPermissionDenied)
	assert.Contains(t, out, "kick requires moderator, you are user")
	assert.Equal(t, 1, h.env.Server.Roster.Len())

	out, err = h.runAs(remote, "players")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
}

func TestCommandsToggle(t *testing.T) {
	h := newHarness(t, "Alice")

	assert.Equal(t, "Disabled World commands.", h.run(t, "commands disable world"))
	out, err := h.runAs(console, "spawn zombie")
	assert.ErrorIs(t, err, middleware.ErrCategoryDisabled)
	assert.Contains(t, out, "World category is switched off")

	assert.Contains(t, h.run(t, "commands"), "World: disabled")

	_, err = h.runAs(console, "commands disable server")
	assert.Error(t, err)
	_, err = h.runAs(console, "commands disable nowhere")
	assert.Error(t, err)

	assert.Equal(t, "Enabled World commands.", h.run(t, "commands enable World"))
	h.run(t, "spawn zombie")
}

func TestRestartRunsAsJob(t *testing.T) {
	h := newHarness(t, "Alice")
	r := &replies{}

	err := h.disp.Dispatch(context.Background(), console, "restart 3 maintenance window", r.add)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.env.Jobs.Wait(ctx))

	msgs := r.all()
	require.Len(t, msgs, 2)
	assert.Regexp(t, `^Started job [0-9a-f]{8} \(restart\)\.$`, msgs[0])
	assert.Equal(t, "Server restarted after 3s (3 announcements).", msgs[1])

	var texts []string
	for _, b := range h.env.Server.Broadcasts(0) {
		texts = append(texts, b.Text)
	}
	assert.Equal(t, []string{
		"Server restart in 3s: maintenance window",
		"Restarting in 2s.",
		"Restarting in 1s.",
	}, texts)
}

func TestRestartCancel(t *testing.T) {
	h := newHarness(t)
	h.env.Tick = time.Hour
	r := &replies{}

	require.NoError(t, h.disp.Dispatch(context.Background(), console, "restart 60 later", r.add))

	out := h.run(t, "jobs")
	assert.Contains(t, out, "restart  started by local")

	_, err := h.runAs(console, "restart 5 again")
	assert.ErrorIs(t, err, jobmgr.ErrAlreadyRunning)

	assert.Equal(t, "Cancelling restart.", h.run(t, "cancel restart"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.env.Jobs.Wait(ctx))

	msgs := r.all()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1], "failed: restart cancelled with 60s left")
	assert.Equal(t, "No jobs are running.", h.run(t, "jobs"))

	_, err = h.runAs(console, "cancel restart")
	assert.ErrorIs(t, err, jobmgr.ErrNotRunning)
}

func TestRestartRejectsBadDelay(t *testing.T) {
	h := newHarness(t)

	out, err := h.runAs(console, "restart -1 now")
	var ue *cmd.UsageError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "delay must be between 0 and 3600 seconds\nUsage: restart <delay> <message...>", out)
	assert.Empty(t, h.env.Jobs.List())

	_, err = h.runAs(console, "restart 3601 later")
	assert.ErrorAs(t, err, &ue)
}

func TestFailedJobIsRecordedInHistory(t *testing.T) {
	h := newHarness(t)
	h.env.Tick = time.Hour

	require.NoError(t, h.disp.Dispatch(context.Background(), console, "restart 60 later", nil))
	h.run(t, "cancel restart")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.env.Jobs.Wait(ctx))

	list, err := h.env.Storage.FetchCommandHistory(10)
	require.NoError(t, err)

	var restart *storage.CommandHistoryRecord
	for i := range list {
		if list[i].Line == "restart 60 later" {
			restart = &list[i]
		}
	}
	require.NotNil(t, restart, "restart missing from history")
	assert.True(t, restart.Failed())
	assert.Contains(t, restart.Error, "restart cancelled with 60s left")

	assert.Contains(t, h.run(t, "history 5"), "restart 60 later  [failed]")
}

func TestBanRejectsOverlongDuration(t *testing.T) {
	h := newHarness(t, "Bob")

	out, err := h.runAs(console, "ban bob 200000000000 forever and ever")
	var ue *cmd.UsageError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, out, "minutes must be at most 5256000")
	assert.Empty(t, h.env.Server.Bans())
	assert.Equal(t, 1, h.env.Server.Roster.Len())

	_, err = h.runAs(console, "ban bob -5")
	assert.ErrorAs(t, err, &ue)
}
