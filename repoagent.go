package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Tejaswini-002/repo-agent/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "repo-agent",
		Usage:   "AI-powered pull request reviewer and push analyzer for GitHub",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   "repo-agent.toml",
			},
		},
		Commands: []*cli.Command{
			cmd.ServeCommand(),
			cmd.ReviewCommand(),
			cmd.PushCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
