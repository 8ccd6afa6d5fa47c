package main

import (
	"github.com/findy-network/findy-conversation-agent/cmd"
)

func main() {
	cmd.Execute()
}
