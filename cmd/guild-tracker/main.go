package main

import "github.com/pfrederiksen/guild-tracker/internal/cli"

func main() {
	cli.Execute()
}
