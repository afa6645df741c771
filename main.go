// Package main is the entry point for the fieldparity CLI.
package main

import "fieldparity.dev/pkg/fieldparity/cmd"

func main() {
	cmd.Execute()
}
