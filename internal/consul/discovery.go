package consul

import (
	"fmt"
	"math/rand"
)

// ServiceInstance is one healthy instance of a discovered service.
type ServiceInstance struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
}

// ServiceDiscovery locates backend instances. The identity client and the
// guidance proxy both consume this interface so tests can substitute a
// static resolver.
type ServiceDiscovery interface {
	Discover(serviceName string) ([]*ServiceInstance, error)
	DiscoverOne(serviceName string) (*ServiceInstance, error)
}

// Discover retrieves all healthy instances of a service.
func (c *Client) Discover(serviceName string) ([]*ServiceInstance, error) {
	entries, _, err := c.api.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to discover service %s: %w", serviceName, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no healthy instances found for service: %s", serviceName)
	}

	instances := make([]*ServiceInstance, 0, len(entries))
	for _, entry := range entries {
		instance := &ServiceInstance{
			ID:      entry.Service.ID,
			Name:    entry.Service.Service,
			Address: entry.Service.Address,
			Port:    entry.Service.Port,
			Tags:    entry.Service.Tags,
		}
		// Agent-registered services may leave the address to the node.
		if instance.Address == "" {
			instance.Address = entry.Node.Address
		}
		instances = append(instances, instance)
	}

	return instances, nil
}

// DiscoverOne picks a single healthy instance at random.
func (c *Client) DiscoverOne(serviceName string) (*ServiceInstance, error) {
	instances, err := c.Discover(serviceName)
	if err != nil {
		return nil, err
	}
	return instances[rand.Intn(len(instances))], nil
}
