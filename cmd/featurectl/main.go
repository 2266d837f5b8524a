package main

import (
	"os"

	"github.com/rs/zerolog"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if err := RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
