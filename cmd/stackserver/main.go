// Command stackserver runs the stacking game analysis API server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/stackengine/pkg/api"
	"github.com/yourusername/stackengine/pkg/engine"
	"github.com/yourusername/stackengine/pkg/external"
)

const version = "0.1.0"

func main() {
	def := api.DefaultConfig()

	// Command line flags
	host := flag.String("host", def.Host, "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", def.Port, "Port to listen on")
	depth := flag.Int("depth", engine.DefaultDepth, "Default search depth")
	maxDepth := flag.Int("max-depth", def.MaxDepth, "Deepest search a client may request")
	cacheSize := flag.Int("cache", engine.DefaultCacheSize, "Evaluation cache entries (negative disables)")
	textPort := flag.Int("text-port", 0, "Port for the line-oriented text protocol (0 = disabled)")
	evalWorkers := flag.Int("eval-workers", def.MaxEvalWorkers, "Max concurrent evaluation requests")
	searchWorkers := flag.Int("search-workers", def.MaxSearchWorkers, "Max concurrent searches")
	readTimeout := flag.Duration("read-timeout", def.ReadTimeout, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", def.WriteTimeout, "HTTP write timeout")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	jsonLogs := flag.Bool("json-logs", false, "Write logs as JSON instead of console output")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("Stack Engine API Server v%s\n", version)
		os.Exit(0)
	}

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	zerolog.SetGlobalLevel(lvl)
	if !*jsonLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	eng, err := engine.NewEngine(engine.EngineOptions{Depth: *depth, CacheSize: *cacheSize})
	if err != nil {
		log.Fatal().Err(err).Msg("engine-create-failed")
	}
	log.Info().Int("depth", eng.Depth()).Int("cache", *cacheSize).Msg("engine-ready")

	config := api.ServerConfig{
		Host:             *host,
		Port:             *port,
		ReadTimeout:      *readTimeout,
		WriteTimeout:     *writeTimeout,
		IdleTimeout:      def.IdleTimeout,
		MaxEvalWorkers:   *evalWorkers,
		MaxSearchWorkers: *searchWorkers,
		MaxDepth:         *maxDepth,
	}

	server := api.NewServer(eng, config, version)

	var textServer *external.Server
	if *textPort > 0 {
		textOpts := external.DefaultServerOptions()
		textOpts.Host = *host
		textOpts.Port = *textPort
		textOpts.Depth = eng.Depth()
		textOpts.MaxDepth = *maxDepth
		textServer = external.NewServer(eng, textOpts)
		if err := textServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("text-protocol-failed")
		}
	}

	err = server.ListenAndServeWithGracefulShutdown()
	if textServer != nil {
		textServer.Stop()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("server-error")
	}
}
