package main

import "github.com/assetbind/assetbind/cmd"

// main is the entry point of the assetbind CLI application.
// It executes the root command which handles argument parsing and subcommand dispatch.
func main() {
	cmd.Execute()
}
