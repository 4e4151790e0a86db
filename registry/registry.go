package registry

import (
	consulapi "github.com/hashicorp/consul/api"
)

// ServiceRegistry abstracts service registration and discovery so callers do
// not depend on a concrete backend.
type ServiceRegistry interface {
	// Register announces a service instance under a unique id with the given
	// health check.
	Register(id, name, address string, port int, tags []string, check *consulapi.AgentServiceCheck) error

	// Deregister removes a service instance by its unique id.
	Deregister(id string) error

	// Discover returns "host:port" addresses of healthy instances of a
	// service, optionally filtered by tag.
	Discover(name string, tag string) ([]string, error)
}
