package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	CollectorHost string
	CollectorPort int
}

// Client publishes collected payloads to the collector endpoint
type Client interface {
	Publish(collectType string, payload interface{}) error
}

type client struct {
	config     *Config
	agentID    string
	httpClient *http.Client
}

func NewCollectorClient(config *Config, agentID string) Client {
	return &client{
		config:     config,
		agentID:    agentID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) Publish(collectType string, payload interface{}) error {
	requestBody, err := json.Marshal(map[string]interface{}{
		"agent_id":     c.agentID,
		"collect_type": collectType,
		"payload":      payload,
	})
	if err != nil {
		return errors.Wrap(err, "could not encode the collected payload")
	}

	endpoint := fmt.Sprintf("http://%s:%d/api/collect", c.config.CollectorHost, c.config.CollectorPort)

	resp, err := c.httpClient.Post(endpoint, "application/json", bytes.NewBuffer(requestBody))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return errors.Errorf("unexpected collector response: %s", resp.Status)
	}

	return nil
}
