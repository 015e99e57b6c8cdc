package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Strob0t/OnboardForge/internal/adapter/postgres"
	"github.com/Strob0t/OnboardForge/internal/config"
)

// runMigrate handles "onboardforge migrate up|down [steps]|version".
func runMigrate(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printMigrateHelp()
		return nil
	}

	positional, flagArgs := splitArgs(args[1:])
	flags, err := config.ParseFlags(flagArgs)
	if err != nil {
		return err
	}
	cfg, _, err := config.LoadWithCLI(flags)
	if err != nil {
		return err
	}
	steps := 1
	switch args[0] {
	case "up", "version":
	case "down":
		if len(positional) > 0 {
			if steps, err = strconv.Atoi(positional[0]); err != nil || steps < 1 {
				return fmt.Errorf("invalid step count %q", positional[0])
			}
		}
	default:
		printMigrateHelp()
		return fmt.Errorf("unknown migrate command: %s", args[0])
	}

	m, err := postgres.NewMigrator(cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	switch args[0] {
	case "up":
		n, err := m.Up(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("applied %d migration(s)\n", n)
	case "down":
		n, err := m.Down(ctx, steps)
		if err != nil {
			return err
		}
		fmt.Printf("rolled back %d migration(s)\n", n)
	case "version":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
	}
	return nil
}

// splitArgs separates positional arguments from flags. Every flag takes a
// value, either as -flag=value or as the following argument.
func splitArgs(args []string) (positional, flags []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		if !strings.Contains(a, "=") && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	return positional, flags
}

func printMigrateHelp() {
	fmt.Fprint(os.Stderr, `Usage: onboardforge migrate <command> [options]

Commands:
  up               Apply all pending migrations
  down [steps]     Roll back the last migration(s), default 1
  version          Print the current schema version

Options:
  -dsn string      PostgreSQL DSN (overrides config)
  -c, -config      Path to YAML config
`)
}
