package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// PushCommand returns the one-shot push analysis command.
func PushCommand() *cli.Command {
	return &cli.Command{
		Name:      "push",
		Usage:     "Analyze a pushed commit range once and exit",
		ArgsUsage: "OWNER/REPO BEFORE_SHA AFTER_SHA",
		Action:    runPush,
	}
}

func runPush(c *cli.Context) error {
	if c.NArg() != 3 {
		return fmt.Errorf("expected OWNER/REPO, BEFORE_SHA and AFTER_SHA arguments")
	}
	repo := c.Args().Get(0)
	before := c.Args().Get(1)
	after := c.Args().Get(2)

	svcs, err := buildServices(c)
	if err != nil {
		return err
	}

	analysis, err := svcs.pushes.Analyze(c.Context, repo, before, after, nil)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(analysis)
}
