package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/astralforge/orrery/core"
	"github.com/astralforge/orrery/internal/logging"
	"github.com/astralforge/orrery/internal/observability"
	"github.com/astralforge/orrery/model"
	"github.com/astralforge/orrery/timectrl"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "simulator",
		Short:         "Deterministic orbital mechanics simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := cmd.Flags()
	flags.String("bodies", "configs/bodies.json", "path to the body dataset")
	flags.String("smallest-body", "", "smallest body class to simulate (Star, Planet, Moon, ...); empty keeps all")
	flags.Float64("duration", 1.0, "game time to simulate, in days; 0 runs until interrupted")
	flags.Float64("updates-per-second", timectrl.DefaultUpdatesPerSecond, "real-time pacing of the simulation loop")
	flags.Uint64("step-size", 1, "simticks advanced per update; changes integration granularity")
	flags.Bool("accelerated", false, "run updates back to back instead of pacing against wall clock")
	flags.String("metrics-addr", ":9090", "listen address for the Prometheus /metrics endpoint; empty disables")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")

	viper.SetEnvPrefix("ORRERY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	log := logging.New(logging.Config{
		Level:  viper.GetString("log-level"),
		Format: viper.GetString("log-format"),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	bodiesPath := viper.GetString("bodies")
	f, err := os.Open(bodiesPath)
	if err != nil {
		return fmt.Errorf("open body dataset %q: %w", bodiesPath, err)
	}
	scenario, err := core.LoadBodies(f, core.BodiesConfig{
		SmallestBodyType: model.BodyType(viper.GetString("smallest-body")),
	})
	f.Close()
	if err != nil {
		return err
	}

	kb, err := core.NewKnowledgeBase(scenario.Bodies)
	if err != nil {
		return err
	}
	log.Info(ctx, "body dataset loaded",
		logging.String("path", bodiesPath),
		logging.Int("bodies", len(scenario.Bodies)),
		logging.String("primary", string(scenario.Primary)),
		logging.Float64("system_size_km", kb.SystemSize()),
	)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if addr := viper.GetString("metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(ctx, "metrics server failed", logging.String("error", err.Error()))
			}
		}()
		defer srv.Close()
		log.Info(ctx, "metrics endpoint listening", logging.String("addr", addr))
	}

	engine := core.NewEngine(kb, core.EngineConfig{
		StepSize: viper.GetUint64("step-size"),
		Logger:   log,
		Metrics:  collector,
	})

	if err := spawnDemoShip(kb); err != nil {
		log.Warn(ctx, "demo ship not spawned", logging.String("error", err.Error()))
	}

	mode := timectrl.RealTime
	if viper.GetBool("accelerated") {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(engine, viper.GetFloat64("updates-per-second"), mode)

	// Periodic progress line; roughly once a wall-clock second at the
	// default rate.
	var updates uint64
	logEvery := uint64(tc.UpdatesPerSecond())
	if logEvery == 0 {
		logEvery = 1
	}
	tc.AddListener(func(now core.GameTime) {
		updates++
		if updates%logEvery != 0 {
			return
		}
		for _, ship := range kb.Ships() {
			log.Info(ctx, "ship state",
				logging.String("ship", string(ship.Info.ID)),
				logging.Float64("gametime_days", now.Time()),
				logging.Float64("x_km", ship.Pos.X),
				logging.Float64("y_km", ship.Pos.Y),
				logging.Float64("z_km", ship.Pos.Z),
				logging.String("main_influencer", string(ship.MainInfluencer)),
			)
		}
	})

	duration := viper.GetFloat64("duration")
	log.Info(ctx, "starting simulation",
		logging.Float64("duration_days", duration),
		logging.Float64("updates_per_second", tc.UpdatesPerSecond()),
		logging.Uint64("step_size", engine.StepSize()),
		logging.Int("mode", int(mode)),
	)

	start := time.Now()
	<-tc.Start(ctx, duration)
	log.Info(ctx, "simulation complete",
		logging.Float64("gametime_days", engine.Now().Time()),
		logging.String("wallclock", time.Since(start).Round(time.Millisecond).String()),
	)
	return nil
}

// spawnDemoShip places one ship on a circular orbit 1000 km above the
// surface of the body named "earth", falling back to the primary body
// when the dataset has no earth.
func spawnDemoShip(kb *core.KnowledgeBase) error {
	host, ok := kb.Body("earth")
	if !ok {
		host, ok = kb.Body(kb.Primary())
		if !ok {
			return fmt.Errorf("no host body available")
		}
	}
	pos, vel := core.CircularOrbitAround(host.Data.Radius+1000, host.Data.Mass, host.Pos, host.Vel)
	return kb.AddShip(model.ShipInfo{
		ID:       "explorer-1",
		SpawnPos: pos,
		SpawnVel: vel,
	})
}
