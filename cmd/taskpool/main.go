package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Swind/go-task-pool/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.NewApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
