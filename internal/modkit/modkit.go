package modkit

import (
	phttp "indexcrawler/internal/platform/net/http"
)

// Module is the common surface of a wired service module
type Module interface {
	// MountRoutes mounts the module's HTTP routes, if it has any
	MountRoutes(r phttp.Router)
	// Ports returns the module's port set for cross wiring
	Ports() any
	// Name returns the module name
	Name() string
}
