// Package main provides the caddy CLI.
package main

import "github.com/mesh-intelligence/caddy/internal/cli"

func main() {
	cli.Execute()
}
