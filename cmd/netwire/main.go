// Command netwire runs a TCP (or WebSocket-upgraded) server speaking the
// typed framing protocol implemented by internal/wire: Heartbeat, String,
// Int32, Float32, Float64, Char, and ByteArray values over a
// START_MARKER/FRAME_LENGTH/DATA_TYPE/PAYLOAD wire format, backed by a
// fixed-size buffer pool and a fixed-size worker pool.
//
// Subcommands dispatch to serve/stats/version/help; setupLogger and
// resolveLogOutput configure slog output; SIGINT/SIGTERM trigger graceful
// shutdown and SIGUSR1 triggers a live config reload.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/netwire-go/netwire/internal/config"
	"github.com/netwire-go/netwire/internal/connio"
	"github.com/netwire-go/netwire/internal/diag"
	"github.com/netwire-go/netwire/internal/pipeline"
	"github.com/netwire-go/netwire/internal/transport"
	"github.com/netwire-go/netwire/internal/wire"
)

var version = "0.1.0-dev"

const statsPath = "netwire.stats"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve", "start":
		serve()
	case "stats":
		printStats()
	case "version":
		fmt.Printf("netwire v%s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serve() {
	cfgPath := "server_options.properties"
	if len(os.Args) > 2 {
		cfgPath = os.Args[2]
	}

	logger, closer := setupLogger("info", "json", "stdout")
	if closer != nil {
		defer closer.Close()
	}
	logger.Info("netwire starting", "version", version)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	sinkCfg, err := config.LoadSink("logs/sink.yaml")
	if err != nil {
		logger.Error("failed to load sink config", "error", err)
		os.Exit(1)
	}

	diag.WriteBanner(os.Stdout, cfg)

	var active atomic.Pointer[config.Config]
	active.Store(cfg)

	sink, err := diag.NewErrorSink(sinkCfg.Path, sinkCfg.QueueCapacity, sinkCfg.FlushInterval, logger)
	if err != nil {
		logger.Error("failed to start error sink", "error", err)
		os.Exit(1)
	}
	defer sink.Close()

	pool := wire.NewBufferPool(cfg.BufferPools)
	executor := connio.NewExecutor(cfg.ThreadsNumber, cfg.ThreadsNumber*4)
	defer executor.Stop()

	collector := diag.NewCollector(pool, executor, sink, nil)
	stopStats := startStatsLoop(collector, logger)
	defer stopStats()

	address := os.Getenv("NETWIRE_ADDRESS")
	if address == "" {
		address = "0.0.0.0:9000"
	}
	listener := transport.NewListener(address, logger)

	go func() {
		err := listener.Start(func(conn net.Conn) {
			handleConnection(conn, &active, pool, executor, sink, logger)
		})
		if err != nil {
			logger.Error("listener error", "error", err)
		}
	}()

	// The WebSocket listener is optional: netwire only starts one when
	// NETWIRE_WS_ADDRESS is set, so the same framing engine can be tunneled
	// through an HTTP upgrade for environments that need it without forcing
	// every deployment to open a second port.
	var wsServer *http.Server
	if wsAddress := os.Getenv("NETWIRE_WS_ADDRESS"); wsAddress != "" {
		wsServer = startWebSocketListener(wsAddress, &active, pool, executor, sink, logger)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGUSR1)
	go func() {
		for range reload {
			logger.Info("SIGUSR1 received, reloading config")
			next, err := config.Load(cfgPath)
			if err != nil {
				logger.Error("reload failed", "error", err)
				continue
			}
			active.Store(next)
			logger.Info("config reloaded",
				"keepAlive", next.KeepAlive,
				"keepAliveTimeoutSeconds", next.KeepAliveTimeoutSeconds,
				"server_name", next.ServerName,
				"bufferPools", next.BufferPools,
				"threadsNumber", next.ThreadsNumber,
			)
		}
	}()

	logger.Info("netwire ready", "address", address)
	<-quit
	logger.Info("shutdown signal received")

	if err := listener.Stop(); err != nil {
		logger.Error("listener shutdown error", "error", err)
	}
	if wsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("websocket listener shutdown error", "error", err)
		}
	}
	logger.Info("netwire stopped")
}

// startWebSocketListener runs an HTTP server whose only route upgrades the
// request to a WebSocket and hands the resulting connection to
// handleConnection exactly as the plain TCP listener does — the framing
// engine is transport-agnostic, so internal/transport.WSConn is all that's
// needed to make it work over an HTTP upgrade too.
func startWebSocketListener(address string, active *atomic.Pointer[config.Config], pool *wire.BufferPool, executor *connio.Executor, sink *diag.ErrorSink, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := transport.UpgradeHTTP(w, r)
		if err != nil {
			logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		handleConnection(conn, active, pool, executor, sink, logger)
	})

	srv := &http.Server{Addr: address, Handler: mux}
	go func() {
		logger.Info("websocket listener started", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket listener error", "error", err)
		}
	}()
	return srv
}

// handleConnection wires one accepted connection's read loop, dispatcher,
// and (if enabled) keep-alive heartbeat sender. It starts the read loop and
// the heartbeat sender on goroutines of their own and then returns.
func handleConnection(conn net.Conn, active *atomic.Pointer[config.Config], pool *wire.BufferPool, executor *connio.Executor, sink *diag.ErrorSink, logger *slog.Logger) {
	cfg := active.Load()
	keepAliveTimeout := time.Duration(cfg.KeepAliveTimeoutSeconds) * time.Second

	ctx := connio.NewConnectionContext(conn, pool, int32(wire.Large), keepAliveTimeout)
	encoder := wire.NewFrameEncoder(pool, connio.NewDataEncoder(ctx, executor))
	out := pipeline.NewOutboundPipeline(encoder)

	in := pipeline.NewInboundPipeline(executor, func(marker byte, err error) {
		sink.Report(fmt.Sprintf("protocol error marker=0x%02x remote=%s: %v", marker, conn.RemoteAddr(), err))
	})
	in.SetReceiveCallback(pipeline.ReceiveCallbackFunc(func(v wire.Value) {
		logger.Debug("received value", "kind", v.Kind, "remote", conn.RemoteAddr())
	}))

	decoder := connio.NewDataDecoder(ctx, in.Consumer(), func(err error) {
		sink.Report(fmt.Sprintf("connection error remote=%s: %v", conn.RemoteAddr(), err))
	})
	decoder.Start()

	if cfg.KeepAlive {
		go sendHeartbeats(ctx, out, connio.HeartbeatInterval(keepAliveTimeout))
	}
}

func sendHeartbeats(ctx *connio.ConnectionContext, out *pipeline.OutboundPipeline, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if ctx.Closed() {
			return
		}
		out.Send(context.Background(), wire.Heartbeat())
	}
}

func startStatsLoop(collector *diag.Collector, logger *slog.Logger) func() {
	ticker := time.NewTicker(5 * time.Second)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				data, err := diag.Encode(collector.Snapshot())
				if err != nil {
					logger.Warn("stats encode failed", "error", err)
					continue
				}
				if err := os.WriteFile(statsPath, data, 0644); err != nil {
					logger.Warn("stats write failed", "error", err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

func printStats() {
	data, err := os.ReadFile(statsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %v\n", statsPath, err)
		os.Exit(1)
	}
	snap, err := diag.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decoding %s: %v\n", statsPath, err)
		os.Exit(1)
	}
	fmt.Printf("netwire stats (taken at %s)\n", snap.TakenAt.Format(time.RFC3339))
	fmt.Printf("  buffer pool: per_class=%d small_free=%d medium_free=%d large_free=%d\n",
		snap.BufferPool.PerClass, snap.BufferPool.SmallFree, snap.BufferPool.MediumFree, snap.BufferPool.LargeFree)
	fmt.Printf("  executor queue: %d/%d\n", snap.ExecutorQueueDepth, snap.ExecutorQueueCap)
	fmt.Printf("  errors: logged=%d dropped=%d\n", snap.ErrorsLogged, snap.ErrorsDropped)
}

func setupLogger(level, format, output string) (*slog.Logger, io.Closer) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	writer, closer := resolveLogOutput(output)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}

	return slog.New(handler), closer
}

func resolveLogOutput(output string) (io.Writer, io.Closer) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return os.Stdout, nil
		}
		return f, f
	}
}

func printUsage() {
	fmt.Println(`netwire - typed TCP framing server

Usage:
  netwire <command> [options]

Commands:
  serve [config]   Start the server (default config: server_options.properties)
  start [config]   Alias for serve
  stats            Print the last stats snapshot written by a running server
  version          Show version
  help             Show this help

Environment:
  NETWIRE_ADDRESS     TCP listen address (default 0.0.0.0:9000)
  NETWIRE_WS_ADDRESS  If set, also upgrade HTTP connections on this address
                      to WebSocket and frame them the same as plain TCP

Signals:
  SIGUSR1          Reload server_options.properties (keep-alive settings only)
  SIGINT/SIGTERM   Graceful shutdown

Examples:
  netwire serve
  netwire serve /etc/netwire/server_options.properties
  netwire stats
  NETWIRE_WS_ADDRESS=0.0.0.0:9001 netwire serve
  kill -USR1 $(pidof netwire)   # reload config`)
}
