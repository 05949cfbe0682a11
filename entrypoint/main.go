package main

import (
	"os"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/logger"
)

func main() {
	logger.SetupLogging()
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
