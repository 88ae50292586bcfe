package main

import "intelstack/cmd/intelstack-cli/cmd"

func main() {
	cmd.Execute()
}
