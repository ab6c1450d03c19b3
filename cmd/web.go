package cmd

import (
	"time"

	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vigilo-project/vigilo/internal/analysis"
	"github.com/vigilo-project/vigilo/internal/db"
	"github.com/vigilo-project/vigilo/web"
)

type webSettings struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	DBHost           string        `mapstructure:"dbhost"`
	DBPort           string        `mapstructure:"dbport"`
	DBUser           string        `mapstructure:"dbuser"`
	DBPassword       string        `mapstructure:"dbpassword"`
	DBName           string        `mapstructure:"dbname"`
	AlertDedupWindow time.Duration `mapstructure:"alert-dedup-window"`
}

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Commands to manage the web application",
}

var webServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web application, collector API included",
	PersistentPreRun: func(serveCmd *cobra.Command, _ []string) {
		if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
			panic(err)
		}
	},
	Run: serveWeb,
}

func init() {
	webServeCmd.Flags().String("host", "0.0.0.0", "The host to bind the HTTP service to")
	webServeCmd.Flags().Int("port", 8080, "The port for the HTTP service to listen at")
	webServeCmd.Flags().String("dbhost", "localhost", "The database host")
	webServeCmd.Flags().String("dbport", "5432", "The database port")
	webServeCmd.Flags().String("dbuser", "postgres", "The database user")
	webServeCmd.Flags().String("dbpassword", "postgres", "The database password")
	webServeCmd.Flags().String("dbname", "vigilo", "The database name")
	webServeCmd.Flags().Duration("alert-dedup-window", 24*time.Hour,
		"Suppress repeated open alerts of the same asset and type within this window, 0 disables suppression")

	webCmd.AddCommand(webServeCmd)
	rootCmd.AddCommand(webCmd)
}

func loadWebSettings() (*webSettings, error) {
	var settings webSettings

	err := viper.Unmarshal(&settings, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc()))
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

func serveWeb(*cobra.Command, []string) {
	settings, err := loadWebSettings()
	if err != nil {
		log.Fatalf("Could not load the web settings: %s", err)
	}

	dbConfig := &db.Config{
		Host:     settings.DBHost,
		Port:     settings.DBPort,
		User:     settings.DBUser,
		Password: settings.DBPassword,
		DBName:   settings.DBName,
	}

	deps, err := web.DefaultDependencies(dbConfig, analysis.DefaultConfig(), settings.AlertDedupWindow)
	if err != nil {
		log.Fatalf("Could not initialize the web dependencies: %s", err)
	}

	app, err := web.NewAppWithDeps(settings.Host, settings.Port, deps)
	if err != nil {
		log.Fatalf("Could not create the web application: %s", err)
	}

	if err := app.Start(); err != nil {
		log.Fatalf("Could not start the web application: %s", err)
	}
}
