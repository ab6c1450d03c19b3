package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "vigilo",
	Short: "Vigilo monitors a fleet of machines and predicts their resource problems",
	Long: `Vigilo collects telemetry from a fleet of agents and runs analysis models
on the collected data to predict disk saturation, detect usage anomalies
and derive performance recommendations before the problems hit.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vigilo.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Minimum severity of the emitted log entries")

	if err := viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}
}

func initConfig() {
	viper.SetEnvPrefix("VIGILO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			log.Errorf("Could not detect the home directory: %s", err)
		} else {
			viper.AddConfigPath(home)
			viper.SetConfigName(".vigilo")
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		log.Infof("Using config file: %s", viper.ConfigFileUsed())
	}

	setLogLevel(viper.GetString("log-level"))
}

func setLogLevel(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level %s, using info", level)
		parsed = log.InfoLevel
	}

	log.SetLevel(parsed)
}
