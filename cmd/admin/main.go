// Command admin is an operator CLI for the reconciliation service: it
// inspects and edits template mappings, and checks a job's status,
// against the same file-backed stores the server process uses.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/utasoy/market-reconciler/internal/config"
	"github.com/utasoy/market-reconciler/internal/job"
	"github.com/utasoy/market-reconciler/internal/template"
)

func main() {
	app := &cli.App{
		Name:  "admin",
		Usage: "manage reconciliation templates and inspect job status",
		Commands: []*cli.Command{
			templateListCmd(),
			templateShowCmd(),
			templateSetCmd(),
			jobShowCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "hata:", err)
		os.Exit(1)
	}
}

func openTemplates() (template.Store, error) {
	cfg := config.Load()
	return template.NewFileStore(filepath.Join(cfg.App.DataDir, "templates"))
}

func templateListCmd() *cli.Command {
	return &cli.Command{
		Name:  "template-list",
		Usage: "list every stored template name",
		Action: func(c *cli.Context) error {
			store, err := openTemplates()
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func templateShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "template-show",
		Usage:     "print a template's column mapping as JSON",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("template-show gerektirir: <name>", 1)
			}
			store, err := openTemplates()
			if err != nil {
				return err
			}
			mapping, err := store.Load(c.Args().First())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(mapping)
		},
	}
}

func templateSetCmd() *cli.Command {
	return &cli.Command{
		Name:      "template-set",
		Usage:     "replace a template's mapping from a JSON file",
		ArgsUsage: "<name> <mapping.json>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return cli.Exit("template-set gerektirir: <name> <mapping.json>", 1)
			}
			raw, err := os.ReadFile(c.Args().Get(1))
			if err != nil {
				return err
			}
			var mapping template.Mapping
			if err := json.Unmarshal(raw, &mapping); err != nil {
				return fmt.Errorf("geçersiz JSON: %w", err)
			}
			store, err := openTemplates()
			if err != nil {
				return err
			}
			if err := store.Save(c.Args().First(), mapping); err != nil {
				return err
			}
			fmt.Println("kaydedildi:", c.Args().First())
			return nil
		},
	}
}

func jobShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "job-show",
		Usage:     "print a job's current status as JSON",
		ArgsUsage: "<job_id>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("job-show gerektirir: <job_id>", 1)
			}
			cfg := config.Load()
			store, err := job.NewStore(cfg.Jobs.Dir, nil)
			if err != nil {
				return err
			}
			status, err := store.Get(c.Args().First())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		},
	}
}
