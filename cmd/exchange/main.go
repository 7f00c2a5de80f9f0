// Command exchange runs the programmable call-auction exchange: it
// accepts participant directives over TCP, drives the bidding-round and
// call-matching cycle on a fixed interval, and routes trade
// notifications back to participants.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vmxexchange/config"
	"vmxexchange/directives"
	"vmxexchange/engine"
	"vmxexchange/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "exchange:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	ip := fs.String("ip", "0.0.0.0", "address to bind")
	port := fs.Int("port", 9000, "port to bind")
	configPath := fs.String("config", "", "path to exchange.toml (optional)")
	biddingRounds := fs.Int("bidding-rounds", 0, "override numBiddingRounds (0 = use config/default)")
	auctionInterval := fs.Int("auction-interval", 0, "override auctionIntervalSeconds (0 = use config/default)")

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "serve" {
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath, *biddingRounds, *auctionInterval)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	queue := directives.NewQueue(4096)
	addr := fmt.Sprintf("%s:%d", *ip, *port)
	srv, err := server.Listen(addr, queue, log)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}
	defer srv.Close()

	eng := engine.New(cfg.Engine)

	go func() {
		if err := srv.Serve(); err != nil {
			log.Infow("server stopped accepting connections", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Duration(cfg.AuctionIntervalSeconds) * time.Second)
	defer ticker.Stop()

	log.Infow("exchange listening", "addr", srv.Addr().String(), "biddingRounds", cfg.Engine.NumBiddingRounds, "auctionIntervalSeconds", cfg.AuctionIntervalSeconds)

	for {
		select {
		case <-ctx.Done():
			log.Infow("shutting down")
			return nil
		case <-ticker.C:
			runCycle(eng, queue, srv, log)
		}
	}
}

func runCycle(eng *engine.Engine, queue *directives.Queue, srv *server.Server, log *zap.SugaredLogger) {
	for _, entry := range queue.DrainAll() {
		directive, ok := entry.Directive.(engine.Directive)
		if !ok {
			continue
		}
		if err := eng.ApplyDirective(entry.Participant, directive); err != nil {
			log.Warnw("directive rejected", "participant", entry.Participant, "error", err)
		}
	}

	result := eng.RunCycle()
	for _, rejection := range result.Rejections {
		log.Infow("participant revision rejected for this round", "participant", rejection.Participant, "error", rejection.Err)
	}
	for _, trade := range result.Trades {
		srv.Notify(trade.Participant, trade)
	}
	log.Infow("cycle complete", "trades", len(result.Trades), "rejections", len(result.Rejections))
}
