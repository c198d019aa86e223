// Package main is the single-binary entrypoint for the simulation kernel.
package main

import "github.com/sagekernel/sagekernel/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
