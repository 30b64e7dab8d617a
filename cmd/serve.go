package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/Tejaswini-002/repo-agent/internal/api"
	"github.com/Tejaswini-002/repo-agent/internal/dispatch"
	"github.com/Tejaswini-002/repo-agent/internal/events"
)

// ServeCommand returns the webhook server command.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the webhook server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides configuration)",
			},
			&cli.BoolFlag{
				Name:  "push-sync",
				Usage: "Answer push webhooks with the analysis inline",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	svcs, err := buildServices(c)
	if err != nil {
		return err
	}

	port := svcs.cfg.Server.Port
	if c.Int("port") > 0 {
		port = c.Int("port")
	}

	server := api.NewServer(api.Options{
		Port:          port,
		WebhookSecret: svcs.cfg.Server.WebhookSecret,
		AutoReview:    svcs.cfg.Review.Auto,
		ReplyEnabled:  svcs.cfg.Review.RepliesEnabled,
		PushSync:      c.Bool("push-sync"),
	}, svcs.reviews, svcs.pushes, events.NewRing(events.DefaultCapacity), dispatch.NewPool(0, 0))

	return server.Start()
}
