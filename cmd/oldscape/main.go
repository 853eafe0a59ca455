package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/oldscape/server/internal/cache"
	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/config"
	"github.com/oldscape/server/internal/core/event"
	coresys "github.com/oldscape/server/internal/core/system"
	"github.com/oldscape/server/internal/data"
	"github.com/oldscape/server/internal/handler"
	"github.com/oldscape/server/internal/metrics"
	gonet "github.com/oldscape/server/internal/net"
	"github.com/oldscape/server/internal/net/packet"
	"github.com/oldscape/server/internal/persist"
	"github.com/oldscape/server/internal/scripting"
	"github.com/oldscape/server/internal/system"
	"github.com/oldscape/server/internal/world"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, worldID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              Oldscape  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        317 protocol · Go game server      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mServer:\033[0m %s \033[90m(world %d)\033[0m\n\n", serverName, worldID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run(ctx context.Context) error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.World)

	// 3. Open the cache and decode definitions
	printSection("Cache")
	store, err := cache.Open(cfg.Cache.Directory)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	defs, err := data.Load(store)
	if err != nil {
		return fmt.Errorf("load definitions: %w", err)
	}
	printStat("Items", defs.Items.Count())
	printStat("Objects", defs.Objects.Count())
	printStat("NPCs", defs.Npcs.Count())
	printStat("Map regions", defs.Maps.Count())

	collision, err := world.NewCollision(func(id int) (*data.Region, error) {
		m, ok := defs.Maps.Region(id)
		if !ok {
			return nil, nil
		}
		return data.LoadRegion(store, m)
	}, defs.Objects, cfg.Cache.RegionCache, log)
	if err != nil {
		return fmt.Errorf("collision: %w", err)
	}
	fmt.Println()

	// 4. World state and NPC spawns
	printSection("World")
	worldState := world.NewState(cfg.Auth.MaxPlayers)
	if cfg.Server.SpawnList != "" {
		spawns, err := data.LoadSpawnList(cfg.Server.SpawnList)
		if err != nil {
			return err
		}
		printStat("NPC spawns", spawnNpcs(worldState, defs.Npcs, spawns, log))
	}

	// 5. Authentication and persistence
	auth, profiles, closeDB, err := openAuth(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()
	printOK(fmt.Sprintf("Authentication: %s", cfg.Auth.Mode))

	// 6. Lua scripting
	var luaEngine *scripting.Engine
	if cfg.Scripting.Enabled {
		luaEngine, err = scripting.NewEngine(cfg.Scripting.Directory, cfg.Server.Name, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		printOK("Lua scripts loaded")
	}
	fmt.Println()

	// 7. Metrics
	var (
		m        *metrics.Metrics
		observer gonet.Observer
		gauge    system.PlayerGauge
	)
	if cfg.Metrics.Enabled {
		m = metrics.New()
		observer, gauge = m, m
	}

	// 8. Network server
	registry, err := packet.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("packet registry: %w", err)
	}
	netServer, err := gonet.NewServer(gonet.Config{
		BindAddress:      cfg.Network.BindAddress,
		Revision:         cfg.Server.Revision,
		InQueueSize:      cfg.Network.InQueueSize,
		OutQueueSize:     cfg.Network.OutQueueSize,
		PacketsPerSecond: cfg.Network.PacketsPerSecond,
		ReadTimeout:      cfg.Network.ReadTimeout,
		WriteTimeout:     cfg.Network.WriteTimeout,
		AuthTimeout:      cfg.Network.AuthTimeout,
	}, registry, observer, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}

	// 9. Handlers and systems
	sessions := gonet.NewSessionStore()
	deps := &handler.Deps{
		World:     worldState,
		Clients:   system.Clients(sessions),
		Collision: collision,
		Scripting: luaEngine,
		Bus:       event.NewBus(),
		WorldID:   cfg.Server.World,
		Log:       log,
	}
	handler.SubscribeSocial(deps)
	dispatcher := handler.NewDispatcher(log)
	handler.RegisterAll(dispatcher)

	saver := system.NewSaver(worldState, profiles, log)
	// The session gives up at AuthTimeout; answer well before that.
	logins := system.NewLoginService(netServer, auth, sessions, deps,
		cfg.Network.AuthTimeout*4/5, cfg.Server.Members, log)

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(logins, sessions, dispatcher, deps, saver, cfg.Network.MaxPacketsPerTick, log))
	runner.Register(system.NewEventSystem(deps.Bus))
	runner.Register(system.NewMovementSystem(worldState, collision, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))))
	runner.Register(system.NewSyncSystem(worldState, deps.Clients))
	runner.Register(system.NewOutputSystem(sessions))
	runner.Register(system.NewPersistenceSystem(saver, int(cfg.Server.Autosave/cfg.Network.TickRate), log))
	runner.Register(system.NewCleanupSystem(worldState, gauge))

	// 10. Run
	printSection("Ready")
	printReady(fmt.Sprintf("Listening on %s", netServer.Addr()))
	printReady(fmt.Sprintf("Game loop running (tick %s)", cfg.Network.TickRate))
	fmt.Println()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(netServer.AcceptLoop)
	if m != nil {
		g.Go(func() error {
			return m.Serve(gctx, cfg.Metrics.Address, log)
		})
	}
	g.Go(func() error {
		defer netServer.Shutdown()
		gameLoop(gctx, runner, cfg.Network.TickRate, m, log)

		log.Info("shutting down", zap.Int("online", worldState.PlayerCount()))
		saved := saver.SaveAll()
		sessions.ForEach(func(s *gonet.Session) { s.Close() })
		log.Info("server stopped", zap.Int("saved", saved))
		return nil
	})
	return g.Wait()
}

// gameLoop ticks the runner until ctx is cancelled.
func gameLoop(ctx context.Context, runner *coresys.Runner, rate time.Duration, m *metrics.Metrics, log *zap.Logger) {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			runner.Tick(rate)
			elapsed := time.Since(start)
			if m != nil {
				m.ObserveTick(elapsed)
			}
			if elapsed > rate {
				log.Warn("tick overran", zap.Duration("elapsed", elapsed), zap.Duration("rate", rate))
			}
		}
	}
}

// openAuth picks the authenticator for auth.mode. Open mode keeps nothing
// between logins, so its ProfileSaver is nil.
func openAuth(ctx context.Context, cfg *config.Config, log *zap.Logger) (world.Authenticator, world.ProfileSaver, func(), error) {
	if cfg.Auth.Mode != "postgres" {
		return world.OpenAuthenticator{}, nil, func() {}, nil
	}

	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := persist.Open(dbCtx, cfg.Database, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database: %w", err)
	}
	printOK("PostgreSQL connected, migrations applied")

	accounts := persist.NewAccounts(persist.NewAccountRepo(db), persist.NewProfileRepo(db), cfg.Auth.AutoCreate, log)
	return accounts, accounts, db.Close, nil
}

// spawnNpcs places the spawn list into the world. Entries naming an NPC the
// cache does not define are skipped.
func spawnNpcs(ws *world.State, npcs *data.NpcTable, spawns []data.NpcSpawn, log *zap.Logger) int {
	total := 0
	for _, s := range spawns {
		def := npcs.Get(s.NpcID)
		if def == nil {
			log.Warn("spawn: unknown npc", zap.Int("npc_id", s.NpcID))
			continue
		}
		pos := component.Position{X: s.X, Y: s.Y, Plane: s.Plane}
		if _, err := ws.AddNpc(def.ID, def.Name, pos, s.Radius); err != nil {
			log.Warn("spawn: npc limit reached", zap.Int("placed", total))
			break
		}
		total++
	}
	return total
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
