package main

import (
	"context"
	"os"

	"github.com/abhisek/awwal/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
