package main

import (
	"context"
	"os"

	"github.com/okian/podium/internal/cli"
	"github.com/okian/podium/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := podium(); err != nil {
		logger.Get().Error(context.Background(), "command failed", logger.Error(err))
		os.Exit(1)
	}
}

func podium() error {
	root := cli.Root()
	root.SetArgs(os.Args[1:])
	return root.Execute()
}
