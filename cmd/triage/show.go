package main

import (
	"errors"
	"fmt"

	"github.com/panbanda/triage/internal/output"
	"github.com/panbanda/triage/pkg/report"
	"github.com/panbanda/triage/pkg/store"
	"github.com/urfave/cli/v2"
)

func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a stored analysis report",
		ArgsUsage: "<project-id>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("show takes exactly one project ID")
			}
			projectID := c.Args().First()

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger, err := newLogger(c, cfg)
			if err != nil {
				return err
			}
			db, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			rep, err := db.Get(c.Context, projectID, report.AgentType)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no report for project %s", projectID)
			}
			if err != nil {
				return err
			}

			formatter, err := newFormatter(c)
			if err != nil {
				return err
			}
			defer formatter.Close()
			return formatter.Output(output.AnalysisView(rep, formatter.Colored()))
		},
	}
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List projects and their analysis status",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger, err := newLogger(c, cfg)
			if err != nil {
				return err
			}
			db, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			projects, err := db.List(c.Context)
			if err != nil {
				return err
			}

			formatter, err := newFormatter(c)
			if err != nil {
				return err
			}
			defer formatter.Close()

			if len(projects) == 0 && formatter.Format() == output.FormatText {
				formatter.Warning("No projects analyzed yet")
				return nil
			}

			rows := make([][]string, len(projects))
			for i, p := range projects {
				status := string(p.Status)
				if formatter.Colored() {
					status = statusColor(status)
				}
				rows[i] = []string{p.ProjectID, status}
			}
			return formatter.Output(output.NewTable("Projects", []string{"Project", "Status"}, rows, nil, projects))
		},
	}
}

func schemaCmd() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema every stored report conforms to",
		Action: func(c *cli.Context) error {
			_, err := c.App.Writer.Write(report.Schema())
			return err
		},
	}
}

// statusColor maps project states onto severity colors.
func statusColor(status string) string {
	switch status {
	case "failed":
		return output.SeverityColor("high", status)
	case "analyzing":
		return output.SeverityColor("medium", status)
	case "completed":
		return output.SeverityColor("low", status)
	default:
		return status
	}
}
