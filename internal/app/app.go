package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	sim "rigs-and-ruin/sim"
	"rigs-and-ruin/sim/descriptor"
	"rigs-and-ruin/sim/internal/geo"
	"rigs-and-ruin/sim/internal/net/intake"
	"rigs-and-ruin/sim/internal/net/proto"
	"rigs-and-ruin/sim/internal/net/ws"
	"rigs-and-ruin/sim/internal/observability"
	"rigs-and-ruin/sim/internal/pointmass"
	"rigs-and-ruin/sim/internal/telemetry"
	"rigs-and-ruin/sim/logging"
	loggingSinks "rigs-and-ruin/sim/logging/sinks"
)

const frameInterval = 16 * time.Millisecond

type Config struct {
	Logger         telemetry.Logger
	Addr           string
	DescriptorPath string
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	addr := cfg.Addr
	if raw := os.Getenv("SIM_ADDR"); raw != "" {
		addr = raw
	}
	if addr == "" {
		addr = ":8080"
	}

	descriptorPath := cfg.DescriptorPath
	if raw := os.Getenv("SIM_DESCRIPTORS"); raw != "" {
		descriptorPath = raw
	}
	if descriptorPath == "" {
		descriptorPath = "config/descriptors.json"
	}

	logConfig := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	if path := os.Getenv("SIM_LOG_JSON"); path != "" {
		logConfig.JSON.FilePath = path
		jsonSink, err := loggingSinks.NewJSONSink(logConfig.JSON)
		if err != nil {
			return fmt.Errorf("failed to open json log sink: %w", err)
		}
		namedSinks = append(namedSinks, logging.NamedSink{Name: "json", Sink: jsonSink})
	}

	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	catalog, err := descriptor.Load(descriptorPath)
	if err != nil {
		return fmt.Errorf("failed to load descriptors: %w", err)
	}
	telemetryLogger.Printf("loaded %d descriptors from %s", catalog.Len(), descriptorPath)

	counters := telemetry.NewCounters()
	queue := intake.NewQueue(1024, counters)
	broadcaster := ws.NewBroadcaster()

	builder := pointmass.NewBuilder(pointmass.BuilderConfig{
		Catalog: catalog,
		Stream: func(streamID int32, payload []byte) {
			packet := proto.Packet{Type: proto.TypeStreamData, StreamID: streamID, Payload: payload}
			if err := broadcaster.Send(packet); err != nil {
				telemetryLogger.Printf("stream broadcast failed: %v", err)
			}
		},
	})

	managerCfg := sim.Config{
		Cores:   runtime.NumCPU(),
		Builder: builder,
		Wire:    broadcaster,
		Logger:  telemetryLogger,
		Metrics: counters,
		Clock:   logging.SystemClock{},
		Events:  router,
	}
	if raw := os.Getenv("SIM_MAX_ACTORS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			managerCfg.MaxActors = value
		} else {
			telemetryLogger.Printf("invalid SIM_MAX_ACTORS=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("SIM_POOL_THREADS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			managerCfg.PoolThreads = value
		} else {
			telemetryLogger.Printf("invalid SIM_POOL_THREADS=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("SIM_DISABLE_POOL"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			managerCfg.DisablePool = value
		} else {
			telemetryLogger.Printf("invalid SIM_DISABLE_POOL=%q: %v", raw, err)
		}
	}

	manager := sim.NewManager(managerCfg)
	defer manager.Shutdown()

	// Spawns arrive over HTTP but must execute on the frame loop; the
	// manager's mutating surface belongs to one goroutine.
	spawns := make(chan sim.SpawnRequest, 64)

	handler := ws.NewHandler(queue, ws.HandlerConfig{
		Broadcaster: broadcaster,
		OnDisconnect: func(sourceID int32) {
			queue.Push(proto.Packet{Type: proto.TypeUserLeave, SourceID: sourceID})
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.Handle)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(counters.Snapshot())
	})
	mux.HandleFunc("/spawn", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("descriptor")
		if !catalog.Has(name) {
			http.Error(w, "unknown descriptor", http.StatusNotFound)
			return
		}
		pos := geo.Vec3{
			X: queryFloat(r, "x"),
			Y: queryFloat(r, "y"),
			Z: queryFloat(r, "z"),
		}
		select {
		case spawns <- sim.SpawnRequest{Descriptor: name, Position: pos}:
			w.WriteHeader(http.StatusAccepted)
		default:
			http.Error(w, "spawn queue full", http.StatusServiceUnavailable)
		}
	})

	observabilityCfg := observability.Config{}
	if raw := os.Getenv("ENABLE_PPROF_TRACE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			observabilityCfg.EnablePprofTrace = value
		} else {
			telemetryLogger.Printf("invalid ENABLE_PPROF_TRACE=%q: %v", raw, err)
		}
	}
	observability.Register(mux, observabilityCfg)

	srv := &http.Server{Addr: addr, Handler: mux}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()
	telemetryLogger.Printf("server listening on %s", addr)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				telemetryLogger.Printf("http shutdown: %v", err)
			}
			return nil
		case err := <-serveErr:
			return fmt.Errorf("server failed: %w", err)
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			drained := false
			for !drained {
				select {
				case req := <-spawns:
					if _, err := manager.CreateActor(req); err != nil {
						telemetryLogger.Printf("spawn %q failed: %v", req.Descriptor, err)
					}
				default:
					drained = true
				}
			}

			if packets := queue.Drain(); len(packets) > 0 {
				manager.HandleStreamData(packets)
			}
			manager.Update(dt)
		}
	}
}

func queryFloat(r *http.Request, key string) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}
