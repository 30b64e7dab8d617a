package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
)

// ReviewCommand returns the one-shot PR review command.
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Review a pull request once and exit",
		ArgsUsage: "OWNER/REPO PR_NUMBER",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Compute the review and print it without posting",
			},
		},
		Action: runReview,
	}
}

func runReview(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected OWNER/REPO and PR_NUMBER arguments")
	}
	repo := c.Args().Get(0)
	number, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid PR number %q", c.Args().Get(1))
	}

	svcs, err := buildServices(c)
	if err != nil {
		return err
	}

	var result interface{}
	if c.Bool("dry-run") {
		result = svcs.reviews.ReviewPullRequest(c.Context, repo, number)
	} else {
		result = svcs.reviews.PostReview(c.Context, repo, number)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
