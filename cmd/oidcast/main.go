package main

import (
	"github.com/ssargent/oidcast/cmd/oidcast/cmd"
	"github.com/ssargent/oidcast/pkg/di"
)

func main() {
	// Initialize dependency injection container
	container := di.NewContainer()

	// Inject dependencies into cmd package
	cmd.SetContainer(container)

	cmd.Execute()
}
