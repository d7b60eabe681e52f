package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/analytics"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/api"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/config"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/conn"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/janitor"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/journal"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/metrics"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/timer"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/tracker"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/transport/channel"

	_ "github.com/lib/pq"
)

// Build-time variables set via -ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitSuccess       = 0
	exitRuntimeError  = 1
	exitInvalidConfig = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitRuntimeError)
	}

	cmd := os.Args[1]

	switch cmd {
	case "serve":
		os.Exit(runServe())
	case "validate":
		os.Exit(runValidate())
	case "config":
		os.Exit(runConfig())
	case "version":
		os.Exit(runVersion())
	case "--help", "-h", "help":
		printUsage()
		os.Exit(exitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(exitRuntimeError)
	}
}

func printUsage() {
	fmt.Println(`orbitwatch - lifecycle event tracker for long-running project operations

Usage:
  orbitwatch <command>

Commands:
  serve      Start the tracker and HTTP API
  validate   Validate configuration (no connections made)
  config     Print effective configuration as JSON (secrets masked)
  version    Print version information

Environment Variables:
  HTTP_ADDR                 HTTP server address (default: ":8080")
  DATABASE_URL              PostgreSQL connection string for the event journal (optional)
  REDIS_ADDR                Redis address for outcome analytics (optional)

  PROVISION_GRACE           How long a finished provision stays visible (default: "60s")
  DELETION_GRACE            How long a finished deletion stays visible (default: "10s")
  MAX_TRACKED_AGE           Force-removal age for records that never finish (default: "30m")
  SWEEP_SCHEDULE            Janitor cron spec (default: "@every 1m")
  EVENTBUS_BUFFER_SIZE      Event bus buffer capacity (default: "100")
  DRAIN_TIMEOUT             Event drain timeout at shutdown (default: "5s")

  PUSH_ENABLED              Report the push channel as configured (default: "false")

  METRICS_ENABLED           Enable Prometheus metrics (default: "false")
  METRICS_PATH              Metrics endpoint path (default: "/metrics")

  ANALYTICS_RETENTION       Redis analytics key retention (default: "168h")
  DB_OP_TIMEOUT             Database operation timeout (default: "5s")
  HTTP_SHUTDOWN_TIMEOUT     Graceful HTTP shutdown timeout (default: "10s")`)
}

func runServe() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	logConfigWarnings(&cfg)

	// Initialize metrics sink (optional)
	var metricsSink *metrics.PrometheusSink
	if cfg.MetricsEnabled {
		metricsSink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
		log.Printf("orbitwatch: metrics enabled (path=%s)", cfg.MetricsPath)
	} else {
		log.Println("orbitwatch: METRICS_ENABLED not set; metrics disabled")
	}

	// Create event bus with optional metrics
	var busOpts []channel.Option
	if metricsSink != nil {
		busOpts = append(busOpts, channel.WithMetrics(metricsSink))
	}
	bus := channel.NewEventBus(cfg.EventBusBufferSize, busOpts...)

	// Connection state is fed by whatever owns the push transport; the
	// in-process pump reports connected while it is consuming the bus.
	connState := conn.NewStateHolder()
	view := conn.NewView(cfg.PushEnabled, connState)

	trk := tracker.New(tracker.Config{
		ProvisionGrace: cfg.ProvisionGrace,
		DeletionGrace:  cfg.DeletionGrace,
	}, timer.NewReal()).WithConnection(view)
	if metricsSink != nil {
		trk = trk.WithMetrics(metricsSink)
	}

	apiHandler := api.NewHandler(trk, bus)

	// Wire the event journal if PostgreSQL is configured
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
			return exitRuntimeError
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
			return exitRuntimeError
		}

		store := journal.New(db)
		schemaCtx, cancelSchema := context.WithTimeout(context.Background(), cfg.DBOpTimeout)
		err = store.EnsureSchema(schemaCtx)
		cancelSchema()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to ensure journal schema: %v\n", err)
			return exitRuntimeError
		}

		trk = trk.WithJournal(store)
		apiHandler = apiHandler.WithJournal(store).WithHealthChecker(db)
		log.Println("orbitwatch: event journal enabled")
	} else {
		log.Println("orbitwatch: DATABASE_URL not set; event journal disabled")
	}

	// Wire analytics if Redis is configured
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer redisClient.Close()

		sink := analytics.NewRedisSink(redisClient, cfg.AnalyticsRetention)
		trk = trk.WithAnalytics(analytics.NewRecorder(sink))
		apiHandler = apiHandler.WithRedisPinger(sink)
		log.Printf("orbitwatch: analytics enabled (redis=%s)", cfg.RedisAddr)
	} else {
		log.Println("orbitwatch: REDIS_ADDR not set; analytics disabled")
	}

	// Janitor bounds records that never reach a terminal status
	jan := janitor.New(janitor.Config{
		Schedule: cfg.SweepSchedule,
		MaxAge:   cfg.MaxTrackedAge,
	}, trk)
	if metricsSink != nil {
		jan = jan.WithMetrics(metricsSink)
	}
	if err := jan.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start janitor: %v\n", err)
		return exitRuntimeError
	}

	// Start HTTP server
	mux := http.NewServeMux()
	if cfg.MetricsEnabled {
		mux.Handle(cfg.MetricsPath, promhttp.Handler())
	}
	mux.Handle("/", apiHandler)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("orbitwatch: http server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("orbitwatch: http server error: %v", err)
		}
	}()

	// Start the pump that feeds bus events into the tracker
	pumpCtx, cancelPump := context.WithCancel(context.Background())
	var pumpWg sync.WaitGroup

	pumpWg.Add(1)
	go func() {
		defer pumpWg.Done()
		connState.Set(conn.State{Status: conn.StatusConnected})
		runPump(pumpCtx, trk, bus.Channel(), cfg.DrainTimeout)
		connState.Set(conn.State{Status: conn.StatusDisconnected})
	}()

	log.Printf("orbitwatch: started (http=%s, provision_grace=%s, deletion_grace=%s)",
		cfg.HTTPAddr, cfg.ProvisionGrace, cfg.DeletionGrace)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig

	log.Printf("orbitwatch: received signal %v, shutting down", received)

	// Phase 1: Stop HTTP server (no new events ingested)
	log.Println("orbitwatch: stopping http server...")
	httpShutdownCtx, httpShutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer httpShutdownCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		log.Printf("orbitwatch: http server shutdown error: %v", err)
	}
	log.Println("orbitwatch: http server stopped")

	// Phase 2: Stop the pump (drains buffered events before returning)
	log.Println("orbitwatch: stopping event pump (draining)...")
	cancelPump()
	pumpWg.Wait()
	log.Println("orbitwatch: event pump stopped")

	// Phase 3: Stop the janitor
	jan.Stop()

	log.Println("orbitwatch: stopped")
	return exitSuccess
}

// runPump delivers bus events to the tracker until ctx is cancelled, then
// drains whatever is still buffered, bounded by drainTimeout.
func runPump(ctx context.Context, trk *tracker.Tracker, events <-chan domain.Envelope, drainTimeout time.Duration) {
	for {
		select {
		case <-ctx.Done():
			drainEvents(trk, events, drainTimeout)
			return
		case env := <-events:
			trk.Dispatch(context.Background(), env)
		}
	}
}

func drainEvents(trk *tracker.Tracker, events <-chan domain.Envelope, drainTimeout time.Duration) {
	deadline := time.Now().Add(drainTimeout)
	drained := 0
	for {
		if time.Now().After(deadline) {
			log.Printf("orbitwatch: drain timeout after %d events, %d still buffered", drained, len(events))
			return
		}
		select {
		case env := <-events:
			trk.Dispatch(context.Background(), env)
			drained++
		default:
			if drained > 0 {
				log.Printf("orbitwatch: drained %d buffered events", drained)
			}
			return
		}
	}
}

// logConfigWarnings flags configurations that are valid but likely not what
// the operator intended.
func logConfigWarnings(cfg *config.Config) {
	if !cfg.MetricsEnabled {
		log.Println("WARNING [P1]: METRICS_ENABLED=false - no visibility into event flow or record counts")
	}
	if cfg.DeletionGrace > cfg.ProvisionGrace {
		log.Printf("WARNING [P1]: DELETION_GRACE=%s exceeds PROVISION_GRACE=%s - deletion records normally clear faster", cfg.DeletionGraceStr, cfg.ProvisionGraceStr)
	}
	if !cfg.PushEnabled {
		log.Println("INFO: PUSH_ENABLED=false - connectivity queries will report not configured; HTTP ingest still works")
	}
	if cfg.EventBusBufferSize < 10 {
		log.Printf("INFO: EVENTBUS_BUFFER_SIZE=%d - bursts of events may hit the emit timeout", cfg.EventBusBufferSize)
	}
}

func runValidate() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitInvalidConfig
	}

	fmt.Println("configuration valid")
	return exitSuccess
}

func runConfig() int {
	cfg := config.Load()

	data, err := cfg.MaskedJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal config: %v\n", err)
		return exitRuntimeError
	}

	fmt.Println(string(data))
	return exitSuccess
}

func runVersion() int {
	fmt.Printf("orbitwatch version %s (commit: %s)\n", version, commit)
	return exitSuccess
}
