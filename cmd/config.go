package cmd

import (
	"fmt"

	"github.com/Swind/go-task-pool/core"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func poolFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML pool config",
			EnvVars: []string{"TASKPOOL_CONFIG"},
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Number of workers (default: number of CPUs)",
		},
		&cli.StringFlag{
			Name:  "policy",
			Usage: "Shutdown policy: drain or cancel",
		},
	}
}

// configFromFlags loads --config if given and applies explicit flag overrides.
func configFromFlags(c *cli.Context) (core.Config, error) {
	cfg := core.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := core.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("policy") {
		cfg.ShutdownPolicy = core.ShutdownPolicy(c.String("policy"))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ConfigCommand prints the effective pool configuration.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Print the effective pool configuration as YAML",
		Flags:  poolFlags(),
		Action: ConfigAction,
	}
}

// ConfigAction is the action of the config command.
func ConfigAction(c *cli.Context) error {
	cfg, err := configFromFlags(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid configuration: %v", err), 1)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	fmt.Fprint(c.App.Writer, string(out))
	return nil
}

// NewApp assembles the taskpool command line.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "taskpool",
		Usage: "Run workloads on a fixed-size worker pool",
		Commands: []*cli.Command{
			RunCommand(),
			ConfigCommand(),
		},
	}
}
