package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/civilshq/civilshq-go/authflow"
	"github.com/civilshq/civilshq-go/gateway"
	"github.com/civilshq/civilshq-go/homecache"
	"github.com/civilshq/civilshq-go/internal/config"
	"github.com/civilshq/civilshq-go/session"
	"github.com/civilshq/civilshq-go/viewgate"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("civilshq")
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg := config.Load()
	setupLogging(cfg)

	app, err := newApp(cfg)
	if err != nil {
		return err
	}

	return buildRootCmd(app, cfg.GetAppName()).Execute()
}

// app wires the client stack together: config, session store, gateway,
// auth controller, view resolver and the homepage cache.
type app struct {
	cfg        config.Config
	store      *session.Store
	gw         *gateway.Client
	controller *authflow.Controller
	resolver   *viewgate.Resolver
	home       *homecache.HomeClient
}

func newApp(cfg config.Config) (*app, error) {
	storage, err := session.NewFileStorage(cfg.GetDataFolder(), cfg.GetSessionHashKey(), cfg.GetSessionBlockKey())
	if err != nil {
		return nil, err
	}

	store, err := session.NewStore(storage)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.New(cfg, store)
	if err != nil {
		return nil, err
	}

	resolver, err := viewgate.NewResolver(store)
	if err != nil {
		return nil, err
	}

	controller, err := authflow.NewController(gw, store, resolver,
		authflow.WithNavigator(func(destination string) {
			fmt.Printf("→ %s\n", destination)
		}),
	)
	if err != nil {
		return nil, err
	}

	home, err := homecache.NewHomeClient(gw, homecache.DefaultTTL)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		store:      store,
		gw:         gw,
		controller: controller,
		resolver:   resolver,
		home:       home,
	}, nil
}

func setupLogging(cfg config.Config) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.GetEnv() == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
