package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/Martian-dev/inbox-categorizer/internal/client"
	"github.com/Martian-dev/inbox-categorizer/internal/tui"
)

func main() {
	app := &cli.App{
		Name:  "inboxview",
		Usage: "browse the categorized inbox in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				Usage:   "inbox API base URL",
				EnvVars: []string{"INBOX_API_URL"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token sent to the API",
				EnvVars: []string{"INBOX_API_TOKEN"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "request timeout",
			},
		},
		Action: func(c *cli.Context) error {
			api := client.New(c.String("api-url"), c.String("token"), c.Duration("timeout"))
			model := tui.New(api, c.Duration("timeout"))

			if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("run ui: %w", err)
			}
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
