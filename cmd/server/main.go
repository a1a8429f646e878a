package main

import "fleet_tracker/internal/cli"

func main() {
	cli.Execute()
}
