package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"rigs-and-ruin/sim/internal/app"
)

func main() {
	var cfg app.Config
	flag.StringVar(&cfg.Addr, "addr", "", "listen address (overridden by SIM_ADDR)")
	flag.StringVar(&cfg.DescriptorPath, "descriptors", "", "descriptor catalog path (overridden by SIM_DESCRIPTORS)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
