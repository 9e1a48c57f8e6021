package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"newsagent/internal/app"
	"newsagent/internal/config"
	"newsagent/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]

	flags := flag.NewFlagSet("newsagent "+command, flag.ExitOnError)
	topics := flags.String("topics", "", "comma-separated list of topics")
	timeOfDay := flags.String("time", "", "daily trigger time (HH:MM)")
	timezone := flags.String("timezone", "", "IANA timezone for the trigger")
	_ = flags.Parse(os.Args[2:])

	cfg := config.Load()
	if *topics != "" {
		cfg.Topics = config.SplitTopics(*topics)
	}
	if *timeOfDay != "" {
		cfg.Schedule.TimeOfDay = *timeOfDay
	}
	if *timezone != "" {
		cfg.Schedule.Timezone = *timezone
	}

	logger := logging.New(cfg.Logging.Level)
	application := app.New(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "run-once":
		err = application.RunOnce(ctx)
	case "start":
		err = application.Start(ctx)
	case "test":
		err = application.Test(ctx)
	case "config":
		application.PrintConfig()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: newsagent <command> [flags]

Commands:
  run-once   generate and send the newsletter once
  start      run the daily scheduler until interrupted
  test       verify transport connectivity, then run once
  config     print the effective configuration

Flags:
  -topics    comma-separated list of topics
  -time      daily trigger time (HH:MM)
  -timezone  IANA timezone for the trigger
`)
}
