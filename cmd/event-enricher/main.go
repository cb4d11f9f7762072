package main

import "github.com/pfrederiksen/event-enricher/internal/cli"

var version = "dev"

func main() {
	cli.Version = version
	cli.Execute()
}
