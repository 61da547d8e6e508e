// Package main is the entry point for the table builder service
package main

import (
	"github.com/openstats/tablebuilder/cmd"
)

func main() {
	cmd.Execute()
}
