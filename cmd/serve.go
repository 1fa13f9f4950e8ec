package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"llmconf/internal/server"
)

const serveUsage = `Usage:
  llmconf serve [--config <path>] [--port <port>]

Flags:
  --config string   Path to YAML configuration file (defaults and LLMCONF_* env when omitted)
  --port   int      Override server port from configuration`

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overridePort int
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.IntVar(&overridePort, "port", 0, "override server port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	if overridePort < 0 || overridePort > 65535 {
		return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
	}

	a, err := bootstrap(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	if overridePort != 0 {
		a.cfg.Server.Port = overridePort
	}

	srv, err := server.New(a.cfg, a.manager, a.router, a.log.With().Str("component", "http").Logger())
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
