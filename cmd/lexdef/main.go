// Package main provides the lexdef binary entry point.
package main

import (
	"context"
	"os"

	// Register LLM providers via init().
	_ "github.com/lexdef/lexdef/llm/providers"

	"github.com/lexdef/lexdef/commands"
)

func main() {
	root := commands.NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
