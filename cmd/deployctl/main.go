package main

import (
	"gitlab.com/mta-deploy/deployctl/cli/commands"
)

func main() {
	commands.Execute()
}
