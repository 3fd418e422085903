package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"actilog/internal/client/cli"
	"actilog/internal/client/config"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	go app.StartWatcher(ctx)
	app.Run(ctx)
}
