// Package main is the entry point for the px CLI tool.
package main

import (
	"github.com/hargabyte/px/internal/cmd"
)

func main() {
	cmd.Execute()
}
