// Package apicmder provides the serve api command for running only the
// chat API server.
package apicmder

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
	"github.com/quietgrove/dossier/cmd/dossier/wiring"
	"github.com/quietgrove/dossier/pkg/config"
	"github.com/quietgrove/dossier/pkg/logger"
	"github.com/quietgrove/dossier/pkg/report"
)

type APICommander struct {
	listen          string
	recencyProvider string
	redisAddr       string
	graphProvider   string
	sqlitePath      string
	postgresDSN     string
	neo4jURI        string
	queueProvider   string
	oracleProvider  string
	oracleModel     string
	oracleTarget    string
	debug           bool

	viper  *viper.Viper
	target string
	logger *slog.Logger
}

const apiLongDesc string = `Run just the chat API server.

Chat turns are stored and gated as usual, but extraction tasks are only
drained when workers run elsewhere (see "dossier work"). Use the redis
queue provider so both processes share one queue.`

const apiShortDesc string = "Run the chat API server"

var apiFlags = []string{
	config.FlagAPIListen,
	config.FlagRecencyProvider,
	config.FlagRedisAddr,
	config.FlagGraphProvider,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagNeo4jURI,
	config.FlagQueueProvider,
	config.FlagOracleProvider,
	config.FlagOracleModel,
	config.FlagOracleTarget,
}

func NewAPICmd() *cobra.Command {
	cmder := &APICommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "api",
		Short: apiShortDesc,
		Long:  apiLongDesc,
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
	config.AddStringFlag(cmd, fs, config.FlagOracleProvider, &cmder.oracleProvider)
	config.AddStringFlag(cmd, fs, config.FlagOracleModel, &cmder.oracleModel)
	config.AddStringFlag(cmd, fs, config.FlagOracleTarget, &cmder.oracleTarget)

	return cmd
}

func (c *APICommander) setup(cmd *cobra.Command, fs config.FlagSet) error {
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
	config.BindRegisteredFlags(c.viper, cmd, fs, apiFlags)

	return nil
}

func (c *APICommander) run() error {
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

	if cfg.Queue.Provider == wiring.ProviderMemory || cfg.Queue.Provider == "" {
		c.logger.Warn("in-memory queue with no local workers, extraction tasks will not be processed")
	}

	reply, _, err := wiring.NewOracles(cfg)
	if err != nil {
		return err
	}

	chatSvc := wiring.NewChatService(store, queue, reply, cfg, c.logger)
	reports := report.NewAggregator(driver)

	apiServer := api.NewServer(api.Config{ListenAddr: cfg.API.Listen}, chatSvc, reports, c.logger)

	c.logger.Info("starting api server", "api_addr", cfg.API.Listen)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return apiServer.Shutdown()
	}
}
