package main

import (
	"context"
	"time"

	"github.com/niksmo/digital-store/config"
	"github.com/niksmo/digital-store/internal/app"
	"github.com/niksmo/digital-store/pkg/sigctx"
)

const closeTimeout = 5 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	store := app.New(sigCtx, cfg)

	store.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	store.Close(ctx)
}
