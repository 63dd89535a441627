package main

import (
	"webwork-assist/cmd/webwork-cli/commands"
	"webwork-assist/internal/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
