package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-zklogin/api"
	"github.com/jrsteele09/go-zklogin/auth"
	"github.com/jrsteele09/go-zklogin/events"
	"github.com/jrsteele09/go-zklogin/internal/config"
	"github.com/jrsteele09/go-zklogin/internal/metrics"
	"github.com/jrsteele09/go-zklogin/kvstore"
	"github.com/jrsteele09/go-zklogin/oauth2"
	"github.com/jrsteele09/go-zklogin/server"
	"github.com/jrsteele09/go-zklogin/sessions"
	"github.com/jrsteele09/go-zklogin/sui"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

// closer releases a resource on shutdown.
type closer func() error

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Bytes("stack", debug.Stack()).Msgf("Recovered from panic: %v", r)
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	ctx := context.Background()
	var closers []closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Msg("shutdown")
			}
		}
	}()

	pendingKV, sessionKV, publisher, err := newStorage(ctx, c, &closers)
	if err != nil {
		return err
	}

	rpcURL := c.GetRPCURL()
	if rpcURL == "" {
		if rpcURL, err = sui.FullnodeURL(c.GetNetwork()); err != nil {
			return err
		}
	}
	chain, err := sui.Dial(ctx, rpcURL)
	if err != nil {
		return err
	}
	closers = append(closers, func() error { chain.Close(); return nil })

	m := metrics.New()
	authService := auth.NewService(auth.Deps{
		Epochs:  chain,
		API:     api.NewClient(c.GetBackendBaseURL(), c.GetTokenProxyURL()),
		Pending: sessions.NewPendingStore(pendingKV, c.GetPendingLoginTTL()),
		Events:  events.NewWatermillPublisher(publisher),
		Metrics: m,
		Config:  c,
	})

	handler := server.New(c, server.Deps{
		Auth:      authService,
		Exchanger: oauth2.NewExchanger(c, oauth2.WithIDTokenVerification(c.GetVerifyIDTokens())),
		Sessions:  sessionKV,
		Metrics:   m,
	})

	srv := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go listenAndServe(srv)
	waitForStopSignal()
	returnError = shutdown(srv)
	return returnError
}

// newStorage uses Redis for both stores and the event stream when REDIS_URL is set. Otherwise
// pending logins live in memory, sessions in a file under the data folder and events on an
// in-process channel.
func newStorage(ctx context.Context, c config.Config, closers *[]closer) (pending, sessionKV kvstore.Store, publisher message.Publisher, err error) {
	logger := events.NewLogger(log.Logger)

	if redisURL := c.GetRedisURL(); redisURL != "" {
		client, err := kvstore.DialRedis(ctx, redisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		*closers = append(*closers, client.Close)

		publisher, err = redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create redis stream publisher: %w", err)
		}
		*closers = append(*closers, publisher.Close)

		store := kvstore.NewRedisStore(client)
		log.Info().Msg("Using Redis storage")
		return store, store, publisher, nil
	}

	fileStore, err := kvstore.NewFileStore(filepath.Join(c.GetDataFolder(), "sessions.json"))
	if err != nil {
		return nil, nil, nil, err
	}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger)
	*closers = append(*closers, pubSub.Close)

	log.Info().Str("path", fileStore.Path()).Msg("Using file session storage")
	return kvstore.NewMemoryStore(), fileStore, pubSub, nil
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
