package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/onflow/vm-runtime/config"
	"github.com/onflow/vm-runtime/fvm"
	"github.com/onflow/vm-runtime/module/metrics"
	"github.com/onflow/vm-runtime/utils/io"
)

var (
	flagDatadir     string
	flagConfig      string
	flagLogLevel    string
	flagMetricsPort uint
)

var rootCmd = &cobra.Command{
	Use:   "vm",
	Short: "execute and validate transactions against a local state",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDatadir, "datadir", "d", "/var/vm/state",
		"directory of the badger state")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"yaml, json or toml file with the VM configuration")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "loglevel", "info",
		"level for logging output")
	rootCmd.PersistentFlags().UintVar(&flagMetricsPort, "metrics-port", 0,
		"port to serve prometheus metrics on, 0 disables the server")

	bindFlags(rootCmd.PersistentFlags())

	cobra.OnInitialize(initConfig)
}

// bindFlags lets VM_<FLAG> environment variables set flags that are not
// given on the command line.
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		_ = viper.BindPFlag(flag.Name, flag)
	})
}

func initConfig() {
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	flagDatadir = viper.GetString("datadir")
	flagConfig = viper.GetString("config")
	flagLogLevel = viper.GetString("loglevel")
	flagMetricsPort = viper.GetUint("metrics-port")
}

func setupLogger() {
	lvl, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", flagLogLevel).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// initDB opens the badger state. The returned function closes it.
func initDB() (*badger.DB, func()) {
	lock := io.NewDirLock(flagDatadir)
	err := lock.Lock()
	if err != nil {
		log.Fatal().Err(err).Msg("state directory is in use")
	}

	opts := badger.
		DefaultOptions(flagDatadir).
		WithKeepL0InMemory(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal().Err(err).Str("datadir", flagDatadir).Msg("could not open badger state")
	}

	return db, func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close badger state")
		}
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("could not unlock state directory")
		}
	}
}

// initContext builds the execution context from the configuration file and
// flags. The returned function stops the metrics server, if any.
func initContext(opts ...fvm.Option) (fvm.Context, func()) {
	vmConfig := config.DefaultVMConfig()
	if flagConfig != "" {
		var err error
		vmConfig, err = config.LoadVMConfig(flagConfig)
		if err != nil {
			log.Fatal().Err(err).Str("config", flagConfig).Msg("could not load VM configuration")
		}
	}

	stop := func() {}
	options := []fvm.Option{
		fvm.WithLogger(log.Logger),
		fvm.WithVMConfig(vmConfig),
	}

	if flagMetricsPort > 0 {
		registry := prometheus.NewRegistry()
		options = append(options, fvm.WithMetricsReporter(metrics.NewExecutionCollector(registry)))

		server := metrics.NewServer(log.Logger, flagMetricsPort, registry)
		server.Start()
		stop = func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("could not stop metrics server")
			}
		}
	}

	return fvm.NewContext(append(options, opts...)...), stop
}
