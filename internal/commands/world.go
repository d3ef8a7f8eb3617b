package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"server-console/internal/config"
	"server-console/internal/game"
	"server-console/pkg/args"
	"server-console/pkg/cmd"
	"server-console/pkg/util"
)

var errNoPlayers = errors.New("no players matched")

// giveWorkers bounds concurrent inventory updates for one give.
const giveWorkers = 4

func init() {
	Register(&Command{
		Sort:        0,
		Name:        "give",
		Description: "Give an item to one or more players.",
		Category:    config.CategoryWorld,
		Permission:  "moderator",
		Args: []args.ArgSpec{
			{Name: "targets", Type: args.List(args.Ref(game.PlayerKind)), Help: "player list, * for everyone"},
			{Name: "item", Type: args.Text()},
			{Name: "count", Type: args.Int(), Optional: true, Default: 1},
		},
		Handler: giveHandler,
	})

	Register(&Command{
		Sort:        10,
		Name:        "teleport",
		Aliases:     []string{"tp"},
		Description: "Move a player to a position.",
		Category:    config.CategoryWorld,
		Permission:  "moderator",
		Args: []args.ArgSpec{
			{Name: "target", Type: args.Ref(game.PlayerKind), Help: "player name or #id"},
			{Name: "position", Type: game.Vec3Type, Constructor: game.Vec3XYZ, Help: "(x y z) or x,y,z"},
		},
		Handler: teleportHandler,
	})

	Register(&Command{
		Sort:        20,
		Name:        "spawn",
		Description: "Spawn an entity, at the world origin unless a position is given.",
		Category:    config.CategoryWorld,
		Permission:  "moderator",
		Args: []args.ArgSpec{
			{Name: "kind", Type: args.Text(), Help: "entity kind, e.g. zombie"},
			{Name: "position", Type: args.Nullable(game.Vec3Type), Optional: true, Constructor: game.Vec3XYZ, Help: "(x y z), x,y,z or null"},
		},
		Handler: spawnHandler,
	})
}

func giveHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	targets := inv.Args.Entities("targets")
	if len(targets) == 0 {
		return errNoPlayers
	}
	item := inv.Args.String("item")
	count := inv.Args.Int("count")

	var mu sync.Mutex
	var given []args.Entity
	err := util.Parallel(ctx, targets, giveWorkers, func(ctx context.Context, t args.Entity) error {
		if _, err := env.Server.Give(t.EntityID(), item, count); err != nil {
			return fmt.Errorf("give to %s: %w", t.EntityName(), err)
		}
		mu.Lock()
		given = append(given, t)
		mu.Unlock()
		return nil
	})
	if len(given) > 0 {
		inv.Replyf("Gave %d %s to %s.", count, item, names(given))
	}
	return err
}

func teleportHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	target := inv.Args.Entity("target")
	pos := inv.Args["position"].(game.Vec3)

	p, err := env.Server.Teleport(target.EntityID(), pos)
	if err != nil {
		return err
	}
	inv.Replyf("Teleported %s to %s.", p, p.Position)
	return nil
}

func spawnHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	var pos *game.Vec3
	if v, ok := inv.Args["position"].(game.Vec3); ok {
		pos = &v
	}
	sp := env.Server.SpawnEntity(inv.Args.String("kind"), pos)
	inv.Replyf("Spawned %s #%d at %s.", sp.Kind, sp.ID, sp.Position)
	return nil
}
