// Package servecmder provides the serve command with subcommands for running services.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quietgrove/dossier/api"
	apicmder "github.com/quietgrove/dossier/cmd/dossier/serve/api"
	"github.com/quietgrove/dossier/cmd/dossier/wiring"
	"github.com/quietgrove/dossier/pkg/config"
	"github.com/quietgrove/dossier/pkg/logger"
	"github.com/quietgrove/dossier/pkg/report"
)

type ServeCommander struct {
	listen          string
	recencyProvider string
	redisAddr       string
	graphProvider   string
	sqlitePath      string
	postgresDSN     string
	neo4jURI        string
	queueProvider   string
	workers         uint
	oracleProvider  string
	oracleModel     string
	oracleTarget    string
	eventsProvider  string
	kafkaBrokers    string
	kafkaTopic      string
	debug           bool

	viper  *viper.Viper
	target string
	logger *slog.Logger
}

const serveLongDesc string = `Run Dossier services.

Use subcommands to run individual services or all services together:
  dossier serve        Run the chat API and extraction workers together
  dossier serve api    Run just the chat API`

const serveShortDesc string = "Run Dossier services"

// serveFlags are the registry keys the serve command exposes.
var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagRecencyProvider,
	config.FlagRedisAddr,
	config.FlagGraphProvider,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagNeo4jURI,
	config.FlagQueueProvider,
	config.FlagWorkers,
	config.FlagOracleProvider,
	config.FlagOracleModel,
	config.FlagOracleTarget,
	config.FlagEventsProvider,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.setup(cmd, fs)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagRecencyProvider, &cmder.recencyProvider)
	config.AddStringFlag(cmd, fs, config.FlagRedisAddr, &cmder.redisAddr)
	config.AddStringFlag(cmd, fs, config.FlagGraphProvider, &cmder.graphProvider)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, fs, config.FlagNeo4jURI, &cmder.neo4jURI)
	config.AddStringFlag(cmd, fs, config.FlagQueueProvider, &cmder.queueProvider)
	config.AddUintFlag(cmd, fs, config.FlagWorkers, &cmder.workers)
	config.AddStringFlag(cmd, fs, config.FlagOracleProvider, &cmder.oracleProvider)
	config.AddStringFlag(cmd, fs, config.FlagOracleModel, &cmder.oracleModel)
	config.AddStringFlag(cmd, fs, config.FlagOracleTarget, &cmder.oracleTarget)
	config.AddStringFlag(cmd, fs, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, fs, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, fs, config.FlagKafkaTopic, &cmder.kafkaTopic)

	cmd.AddCommand(apicmder.NewAPICmd())

	return cmd
}

// setup resolves the config directory, initializes viper, and binds the
// command's flags into the precedence chain.
func (c *ServeCommander) setup(cmd *cobra.Command, fs config.FlagSet) error {
	var err error
	c.debug, err = cmd.Flags().GetBool("debug")
	if err != nil {
		return fmt.Errorf("could not get debug flag: %v", err)
	}

	configDir, err := cmd.Flags().GetString("config-dir")
	if err != nil {
		return fmt.Errorf("could not get config-dir flag: %v", err)
	}

	configer, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("could not resolve config directory: %w", err)
	}
	if path := configer.GetTarget(); path != "" {
		c.target = filepath.Dir(path)
	}

	c.viper, err = config.InitViper(configDir)
	if err != nil {
		return fmt.Errorf("could not initialize config: %w", err)
	}
	config.BindRegisteredFlags(c.viper, cmd, fs, serveFlags)

	return nil
}

func (c *ServeCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug))
	cfg := config.FromViper(c.viper)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := wiring.NewRecencyStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	driver, err := wiring.NewGraphDriver(ctx, cfg, c.target)
	if err != nil {
		return err
	}
	defer driver.Close()

	queue, err := wiring.NewQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer queue.Close()

	events, err := wiring.NewPublisher(cfg)
	if err != nil {
		return err
	}
	defer events.Close()

	reply, classify, err := wiring.NewOracles(cfg)
	if err != nil {
		return err
	}

	chatSvc := wiring.NewChatService(store, queue, reply, cfg, c.logger)
	reports := report.NewAggregator(driver)
	dispatcher := wiring.NewDispatcher(queue, driver, events, classify, cfg, c.logger)

	apiServer := api.NewServer(api.Config{ListenAddr: cfg.API.Listen}, chatSvc, reports, c.logger)

	c.logger.Info("starting services",
		"api_addr", cfg.API.Listen,
		"graph", cfg.Graph.Provider,
		"queue", cfg.Queue.Provider,
		"workers", cfg.Queue.Workers,
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	go func() {
		dispatcher.Run(ctx)
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		return apiServer.Shutdown()
	}
}
