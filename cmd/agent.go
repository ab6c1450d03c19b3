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

	"github.com/vigilo-project/vigilo/agent"
	"github.com/vigilo-project/vigilo/agent/collector"
)

type agentSettings struct {
	InstanceName      string        `mapstructure:"instance-name"`
	MachineIDPath     string        `mapstructure:"machine-id-path"`
	TelemetryInterval time.Duration `mapstructure:"telemetry-interval"`
	HostInterval      time.Duration `mapstructure:"host-interval"`
	CollectorHost     string        `mapstructure:"collector-host"`
	CollectorPort     int           `mapstructure:"collector-port"`
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Commands to manage the telemetry agent",
}

var agentStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the telemetry agent on this machine",
	PersistentPreRun: func(startCmd *cobra.Command, _ []string) {
		if err := viper.BindPFlags(startCmd.Flags()); err != nil {
			panic(err)
		}
	},
	Run: runAgent,
}

func init() {
	agentStartCmd.Flags().String("instance-name", "", "A human friendly name for this machine, generated when empty")
	agentStartCmd.Flags().String("machine-id-path", "/etc/machine-id", "The file the stable agent identifier is derived from")
	agentStartCmd.Flags().Duration("telemetry-interval", 300*time.Second, "How often to collect and publish telemetry")
	agentStartCmd.Flags().Duration("host-interval", time.Hour, "How often to collect and publish host facts")
	agentStartCmd.Flags().String("collector-host", "localhost", "The collector host to publish to")
	agentStartCmd.Flags().Int("collector-port", 8080, "The collector port to publish to")

	agentCmd.AddCommand(agentStartCmd)
	rootCmd.AddCommand(agentCmd)
}

func loadAgentSettings() (*agentSettings, error) {
	var settings agentSettings

	err := viper.Unmarshal(&settings, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc()))
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

func runAgent(*cobra.Command, []string) {
	settings, err := loadAgentSettings()
	if err != nil {
		log.Fatalf("Could not load the agent settings: %s", err)
	}

	a, err := agent.NewAgent(&agent.Config{
		InstanceName:      settings.InstanceName,
		MachineIDPath:     settings.MachineIDPath,
		TelemetryInterval: settings.TelemetryInterval,
		HostInterval:      settings.HostInterval,
		CollectorConfig: &collector.Config{
			CollectorHost: settings.CollectorHost,
			CollectorPort: settings.CollectorPort,
		},
	})
	if err != nil {
		log.Fatalf("Could not create the agent: %s", err)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		a.Stop()
	}()

	if err := a.Start(); err != nil {
		log.Fatalf("Could not start the agent: %s", err)
	}
}
