package main

import "github.com/tauraamui/framerelay/cmd/framectl/commands"

func main() {
	commands.Execute()
}
