// Command subscription-watch follows a user's subscription status after a
// checkout. It forces one refresh (giving the payment webhook time to land),
// then keeps polling on an interval and on SIGUSR1 until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"finance-app-go/internal/config"
	"finance-app-go/pkg/client"
	"finance-app-go/pkg/logger"
	"finance-app-go/pkg/reconciler"
)

func main() {
	once := flag.Bool("once", false, "exit after the first settled refresh")
	flag.Parse()

	log := logger.NewFromEnv()

	cfg, err := config.LoadReconciler(log)
	if err != nil {
		log.Critical("watch: load config failed", "err", err)
		os.Exit(1)
	}
	if cfg.Token == "" {
		log.Critical("watch: API_TOKEN is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.APIURL, cfg.Token)
	r := reconciler.New(api, reconciler.Config{
		MinInterval: cfg.MinInterval,
		ForcedDelay: cfg.ForcedDelay,
		MaxRetries:  cfg.MaxRetries,
		Backoff:     cfg.Backoff,
	},
		reconciler.WithLogger(log),
		reconciler.WithOnSettle(printSnapshot),
	)

	log.Info("watch: forced refresh", "api_url", cfg.APIURL, "delay", cfg.ForcedDelay)
	snap, _ := r.Refresh(ctx, true)
	if *once {
		if snap.Degraded() {
			os.Exit(2)
		}
		return
	}

	wake := make(chan os.Signal, 1)
	signal.Notify(wake, syscall.SIGUSR1)
	defer signal.Stop(wake)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
				r.Notify()
			}
		}
	}()

	r.Run(ctx, cfg.PollEvery)
	log.Info("watch: stopped")
}

func printSnapshot(snap reconciler.Snapshot) {
	end := "-"
	if snap.Status.SubscriptionEnd != nil {
		end = snap.Status.SubscriptionEnd.Format("2006-01-02 15:04 MST")
	}
	line := fmt.Sprintf("tier=%s subscribed=%t end=%s source=%s", snap.Status.Tier, snap.Status.Subscribed, end, snap.Origin)
	if snap.Err != nil {
		line += " degraded=" + snap.Err.Error()
	}
	fmt.Println(line)
}
