package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Tejaswini-002/repo-agent/internal/config"
)

// ConfigCommand returns the configuration management command.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write a sample configuration file",
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Load the configuration and check it for errors",
				Action: runConfigValidate,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets redacted",
				Action: runConfigShow,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		path = "repo-agent.toml"
	}
	if err := config.Init(path); err != nil {
		return err
	}
	fmt.Printf("Wrote sample configuration to %s\n", path)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	path := ""
	if c.IsSet("config") {
		path = c.String("config")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Printf("Configuration OK (provider=%s, port=%d)\n", cfg.AI.Provider, cfg.Server.Port)
	return nil
}

func runConfigShow(c *cli.Context) error {
	path := ""
	if c.IsSet("config") {
		path = c.String("config")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if cfg.GitHub.Token != "" {
		cfg.GitHub.Token = "<redacted>"
	}
	if cfg.AI.APIKey != "" {
		cfg.AI.APIKey = "<redacted>"
	}
	if cfg.Server.WebhookSecret != "" {
		cfg.Server.WebhookSecret = "<redacted>"
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
