// Package main is the entry point for the tenantsql binary.
package main

import (
	"os"

	"tenantsql/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
