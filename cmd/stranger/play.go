package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	stdnet "net"
	"net/http"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strangerhq/stranger/internal/agent"
	"github.com/strangerhq/stranger/internal/config"
	"github.com/strangerhq/stranger/internal/core/event"
	"github.com/strangerhq/stranger/internal/data"
	"github.com/strangerhq/stranger/internal/handler"
	"github.com/strangerhq/stranger/internal/identity"
	gonet "github.com/strangerhq/stranger/internal/net"
	"github.com/strangerhq/stranger/internal/net/packet"
	"github.com/strangerhq/stranger/internal/scripting"
	"github.com/strangerhq/stranger/internal/system"
	"github.com/strangerhq/stranger/internal/world"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type playOptions struct {
	host bool
	room string             // empty when hosting: the peer id is used
	ids  identity.Generator // nil = identity.Random
}

// self mints the local identity and resolves the room it acts in.
func (o playOptions) self(displayName string) (identity.Identity, packet.Role, string) {
	ids := o.ids
	if ids == nil {
		ids = identity.Random{}
	}
	me := ids.Next().WithDisplayName(displayName)
	if !o.host {
		return me, packet.RoleFollower, o.room
	}
	room := o.room
	if room == "" {
		room = me.ID
	}
	return me, packet.RoleCoordinator, room
}

// ── Participant ────────────────────────────────────────────────────

func play(ctx context.Context, cfgPath string, o playOptions) error {
	// 1. Config, logger, crash reporting
	cfg, log, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer initSentry(cfg.Sentry, log)()

	// 2. Identity and room
	self, role, room := o.self(cfg.Session.DisplayName)
	printBanner(self.DisplayName, room)

	ws := world.NewState(self, world.Room{ID: room, Role: role}, cfg.Sync.StaleAfter, cfg.Chat.Capacity)
	deps := &handler.Deps{
		Config: cfg,
		Log:    log,
		World:  ws,
		Bus:    event.NewBus(),
		Now:    time.Now,
	}

	// 3. Agent table and scripts
	printSection("data")
	table, err := data.LoadAgentTable(cfg.Data.AgentTable)
	if err != nil {
		return fmt.Errorf("load agent table: %w", err)
	}
	printStat("waypoints", len(table.Agent.Waypoints))
	printStat("bots", len(table.Bots.Profiles))

	engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	printOK("agent scripts loaded")
	fmt.Println()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	g, ctx := errgroup.WithContext(ctx)
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	lines := make(chan string, 16)
	opts := system.Options{
		Deps:     deps,
		Local:    world.NewBody(mgl64.Vec3{0, 1, -6}),
		Bots:     &table.Bots,
		Rng:      rng,
		Commands: lines,
		Out:      os.Stdout,
		Quit:     quit,
	}
	if cfg.Agent.Enabled {
		voice := scripting.NewVoice(engine, table.Agent.Lines, rng)
		opts.Agent = agent.NewController(agentParams(cfg.Agent), table.Waypoints(), voice, rng)
		opts.AgentSpawn = table.Spawn()
		opts.AgentBody = world.NewBody(opts.AgentSpawn)
		opts.AgentBody.Floor = 1
	}

	// 4. Network
	printSection("network")
	dir := gonet.NewHTTPDirectory(cfg.Rendezvous.URL, cfg.Network.DialTimeout)
	if o.host {
		srv, err := host(ctx, g, cfg, dir, room, log)
		if err != nil {
			return err
		}
		opts.Sources = []system.ChannelSource{srv}
	} else {
		dialer := gonet.NewDialer(dir,
			gonet.WebsocketConnector{WriteTimeout: cfg.Network.WriteTimeout},
			cfg.Network.InQueueSize, cfg.Network.OutQueueSize,
			cfg.Network.DialTimeout, cfg.Network.RedialInterval, log)
		g.Go(func() error {
			dialer.Run(ctx, room)
			return nil
		})
		opts.Sources = []system.ChannelSource{dialer}
		opts.Failures = dialer
		printOK("joining room " + room + " via " + cfg.Rendezvous.URL)
	}
	fmt.Println()

	// 5. Tick loop
	session := system.NewSession(opts)
	ws.Game.Start()
	go readLines(os.Stdin, lines)

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Network.TickRate)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				session.Teardown()
				return nil
			case now := <-ticker.C:
				session.Tick(now.Sub(last))
				last = now
			}
		}
	})

	printReady(fmt.Sprintf("tick loop running (tick: %s)", cfg.Network.TickRate))
	printReady("type to chat; /start /stop /key /win /reset /who /pos x y z /quit")
	fmt.Println()

	err = g.Wait()
	log.Info("session ended", zap.String("room", room))
	return err
}

// host serves the websocket endpoint and publishes the room. A rendezvous
// that cannot be reached is reported but does not stop the session.
func host(ctx context.Context, g *errgroup.Group, cfg *config.Config, dir gonet.Directory, room string, log *zap.Logger) (*gonet.Server, error) {
	srv := gonet.NewServer(cfg.Network.InQueueSize, cfg.Network.OutQueueSize, cfg.Network.WriteTimeout, log)
	mux := http.NewServeMux()
	mux.Handle("/ws", srv)
	httpSrv := &http.Server{Addr: cfg.Network.BindAddress, Handler: mux}

	ln, err := stdnet.Listen("tcp", cfg.Network.BindAddress)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Network.BindAddress, err)
	}
	printOK("listening on " + ln.Addr().String())

	g.Go(func() error {
		if err := httpSrv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	advertise := advertiseURL(cfg.Network)
	if err := dir.Register(ctx, room, advertise); err != nil {
		log.Warn("rendezvous registration failed", zap.String("room", room), zap.Error(err))
		printWarn("rendezvous unreachable; followers cannot resolve " + room)
	} else {
		printOK("room " + room + " published as " + advertise)
	}

	g.Go(func() error {
		<-ctx.Done()
		srv.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := dir.Unregister(shutdownCtx, room); err != nil {
			log.Debug("rendezvous unregister failed", zap.Error(err))
		}
		return httpSrv.Shutdown(shutdownCtx)
	})
	return srv, nil
}

// advertiseURL is the websocket address followers dial. A wildcard bind
// address is published as loopback.
func advertiseURL(cfg config.NetworkConfig) string {
	if cfg.AdvertiseURL != "" {
		return cfg.AdvertiseURL
	}
	h, port, err := stdnet.SplitHostPort(cfg.BindAddress)
	if err != nil {
		return "ws://" + cfg.BindAddress + "/ws"
	}
	if h == "" || h == "0.0.0.0" || h == "::" {
		h = "127.0.0.1"
	}
	return "ws://" + stdnet.JoinHostPort(h, port) + "/ws"
}

func agentParams(cfg config.AgentConfig) agent.Params {
	return agent.Params{
		DetectionRange:  cfg.DetectionRange,
		Hysteresis:      cfg.Hysteresis,
		CatchRange:      cfg.CatchRange,
		ChaseSpeed:      cfg.ChaseSpeed,
		PatrolSpeed:     cfg.PatrolSpeed,
		WaypointRadius:  cfg.WaypointRadius,
		FallSpeed:       cfg.FallSpeed,
		UtteranceChance: cfg.UtteranceChance,
	}
}

// readLines feeds typed lines to the tick loop and closes out on EOF.
func readLines(r io.Reader, out chan<- string) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out <- sc.Text()
	}
	close(out)
}
