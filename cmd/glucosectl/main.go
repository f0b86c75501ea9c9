// Command glucosectl runs glucose analytics against the configured store from the
// command line.
package main

import "lg/glucose-api/cmd/glucosectl/command"

func main() {
	command.Execute()
}
