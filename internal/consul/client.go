// Package consul wraps HashiCorp Consul for the gateway's two needs:
// registering itself with a health check, and locating the identity and
// guidance services it forwards traffic to.
package consul

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// Client wraps the Consul API client
type Client struct {
	api *consulapi.Client
}

// NewClient creates a Consul client, optionally authenticated with an ACL
// token.
func NewClient(addr, token string) (*Client, error) {
	config := consulapi.DefaultConfig()
	config.Address = addr
	if token != "" {
		config.Token = token
	}

	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, err
	}

	return &Client{api: client}, nil
}

// Registration describes how the gateway announces itself.
type Registration struct {
	ID          string
	Name        string
	Address     string
	Port        int
	Tags        []string
	HealthURL   string
	CheckEvery  string
	CheckWithin string
}

// Register announces a service instance to Consul.
func (c *Client) Register(reg *Registration) error {
	svc := &consulapi.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    reg.Tags,
	}

	if reg.HealthURL != "" {
		svc.Check = &consulapi.AgentServiceCheck{
			HTTP:     reg.HealthURL,
			Interval: reg.CheckEvery,
			Timeout:  reg.CheckWithin,
		}
	}

	if err := c.api.Agent().ServiceRegister(svc); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	return nil
}

// Deregister removes a service instance from Consul.
func (c *Client) Deregister(serviceID string) error {
	if err := c.api.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}
