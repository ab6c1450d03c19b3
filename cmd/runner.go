package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vigilo-project/vigilo/internal/analysis"
	"github.com/vigilo-project/vigilo/internal/db"
	"github.com/vigilo-project/vigilo/runner"
)

type runnerSettings struct {
	DBHost           string        `mapstructure:"dbhost"`
	DBPort           string        `mapstructure:"dbport"`
	DBUser           string        `mapstructure:"dbuser"`
	DBPassword       string        `mapstructure:"dbpassword"`
	DBName           string        `mapstructure:"dbname"`
	SweepInterval    time.Duration `mapstructure:"sweep-interval"`
	AlertDedupWindow time.Duration `mapstructure:"alert-dedup-window"`
	Once             bool          `mapstructure:"once"`
}

var runnerCmd = &cobra.Command{
	Use:   "runner",
	Short: "Commands to manage the analysis runner",
}

var runnerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the periodic analysis sweep over the fleet",
	PersistentPreRun: func(startCmd *cobra.Command, _ []string) {
		if err := viper.BindPFlags(startCmd.Flags()); err != nil {
			panic(err)
		}
	},
	Run: runRunner,
}

func init() {
	runnerStartCmd.Flags().String("dbhost", "localhost", "The database host")
	runnerStartCmd.Flags().String("dbport", "5432", "The database port")
	runnerStartCmd.Flags().String("dbuser", "postgres", "The database user")
	runnerStartCmd.Flags().String("dbpassword", "postgres", "The database password")
	runnerStartCmd.Flags().String("dbname", "vigilo", "The database name")
	runnerStartCmd.Flags().Duration("sweep-interval", time.Hour, "How often to run the analysis sweep over the fleet")
	runnerStartCmd.Flags().Duration("alert-dedup-window", 24*time.Hour,
		"Suppress repeated open alerts of the same asset and type within this window, 0 disables suppression")
	runnerStartCmd.Flags().Bool("once", false, "Run a single analysis sweep and exit")

	runnerCmd.AddCommand(runnerStartCmd)
	rootCmd.AddCommand(runnerCmd)
}

func loadRunnerSettings() (*runnerSettings, error) {
	var settings runnerSettings

	err := viper.Unmarshal(&settings, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc()))
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

func runRunner(*cobra.Command, []string) {
	settings, err := loadRunnerSettings()
	if err != nil {
		log.Fatalf("Could not load the runner settings: %s", err)
	}

	r, err := runner.NewRunner(&runner.Config{
		DBConfig: &db.Config{
			Host:     settings.DBHost,
			Port:     settings.DBPort,
			User:     settings.DBUser,
			Password: settings.DBPassword,
			DBName:   settings.DBName,
		},
		AnalysisConfig:   analysis.DefaultConfig(),
		AlertDedupWindow: settings.AlertDedupWindow,
		SweepInterval:    settings.SweepInterval,
		Once:             settings.Once,
	})
	if err != nil {
		log.Fatalf("Could not create the runner: %s", err)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		r.Stop()
	}()

	if err := r.Start(); err != nil {
		log.Fatalf("Could not start the runner: %s", err)
	}
}
