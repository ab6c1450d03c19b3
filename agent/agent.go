package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/vigilo-project/vigilo/agent/collector"
	"github.com/vigilo-project/vigilo/agent/readings"
	"github.com/vigilo-project/vigilo/internal"
	"github.com/vigilo-project/vigilo/version"
	"github.com/vigilo-project/vigilo/web/datapipeline"
)

type Agent struct {
	config          *Config
	collectorClient collector.Client
	ctx             context.Context
	ctxCancel       context.CancelFunc
}

type Config struct {
	InstanceName      string
	MachineIDPath     string
	TelemetryInterval time.Duration
	HostInterval      time.Duration
	CollectorConfig   *collector.Config
}

// NewAgent returns a new instance of Agent with the given configuration
func NewAgent(config *Config) (*Agent, error) {
	agentID, err := identify(afero.NewOsFs(), config.MachineIDPath)
	if err != nil {
		return nil, errors.Wrap(err, "could not determine the agent identifier")
	}

	if config.InstanceName == "" {
		config.InstanceName = petname.Generate(2, "-")
		log.Infof("No instance name configured, using %s", config.InstanceName)
	}

	ctx, ctxCancel := context.WithCancel(context.Background())
	agent := &Agent{
		config:          config,
		collectorClient: collector.NewCollectorClient(config.CollectorConfig, agentID),
		ctx:             ctx,
		ctxCancel:       ctxCancel,
	}

	return agent, nil
}

// identify derives the stable agent identifier from the host machine-id
func identify(fs afero.Fs, machineIDPath string) (string, error) {
	machineIDBytes, err := afero.ReadFile(fs, machineIDPath)
	if err != nil {
		return "", err
	}

	machineID := strings.TrimSpace(string(machineIDBytes))

	return uuid.NewSHA1(internal.VigiloNamespace, []byte(machineID)).String(), nil
}

// Start the Agent. This will start the telemetry ticker and the host facts ticker
func (a *Agent) Start() error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func(wg *sync.WaitGroup) {
		log.Info("Starting telemetry loop...")
		defer wg.Done()
		a.startTelemetryTicker()
		log.Info("Telemetry loop stopped.")
	}(&wg)

	wg.Add(1)
	go func(wg *sync.WaitGroup) {
		log.Info("Starting host facts loop...")
		defer wg.Done()
		a.startHostTicker()
		log.Info("Host facts loop stopped.")
	}(&wg)

	wg.Wait()

	return nil
}

func (a *Agent) Stop() {
	a.ctxCancel()
}

func (a *Agent) startTelemetryTicker() {
	tick := func() {
		reading, err := readings.NewTelemetryReading()
		if err != nil {
			log.Errorf("Error while reading telemetry: %s", err)
			return
		}

		if err := a.collectorClient.Publish(datapipeline.TelemetryCollect, reading); err != nil {
			log.Errorf("Error while publishing telemetry to the server: %s", err)
		}
	}

	internal.Repeat("agent.telemetry", tick, a.config.TelemetryInterval, a.ctx)
}

func (a *Agent) startHostTicker() {
	tick := func() {
		reading, err := readings.NewHostReading()
		if err != nil {
			log.Errorf("Error while reading host facts: %s", err)
			return
		}
		reading.InstanceName = a.config.InstanceName
		reading.AgentVersion = version.Version

		if err := a.collectorClient.Publish(datapipeline.HostCollect, reading); err != nil {
			log.Errorf("Error while publishing host facts to the server: %s", err)
		}
	}

	internal.Repeat("agent.host", tick, a.config.HostInterval, a.ctx)
}
