// Command aiopool-demo exercises package pool and package task end to end
// against a real Redis broker: a "produce" subcommand pushes calls onto a
// named queue, a "serve" subcommand consumes them into a local
// back-pressured pool and exposes /healthz, /stats, and /metrics.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chainlens/aiopool/broker"
	"github.com/chainlens/aiopool/broker/redisbroker"
	"github.com/chainlens/aiopool/task"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "aiopool-demo",
		Short: "Exercise the concurrency pool and distributed task queue against Redis",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(buildServeCommand())
	root.AddCommand(buildProduceCommand())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func buildServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume the queue and serve /healthz, /stats, /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runServe(cfg)
		},
	}
}

func buildProduceCommand() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Push N calls onto the queue and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runProduce(cfg, n)
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 100, "number of calls to push")
	return cmd
}

func newRedisTask(cfg Config) (broker.Broker, *task.Task[int, int], error) {
	br, err := redisbroker.New(redisbroker.Config{URL: cfg.RedisURL})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	t, err := task.Register[int, int](func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	}, task.Config{
		QueueName:      cfg.QueueName,
		MaxConcurrency: cfg.MaxConcurrency,
		MaxQueueSize:   cfg.MaxQueueSize,
		Broker:         br,
	})
	if err != nil {
		br.Close()
		return nil, nil, fmt.Errorf("register task: %w", err)
	}
	return br, t, nil
}

func runServe(cfg Config) error {
	br, t, err := newRedisTask(cfg)
	if err != nil {
		return err
	}
	defer br.Close()
	defer t.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := t.Consume(ctx, 2*time.Second); err != nil && ctx.Err() == nil {
			log.Printf("consume loop stopped: %v", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: newServer(t.LocalPool(), t),
	}
	go func() {
		log.Printf("aiopool-demo listening on :%d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down aiopool-demo...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runProduce(cfg Config, n int) error {
	br, t, err := newRedisTask(cfg)
	if err != nil {
		return err
	}
	defer br.Close()
	defer t.Close()

	for i := 0; i < n; i++ {
		if err := t.Submit(context.Background(), i); err != nil {
			return fmt.Errorf("submit %d: %w", i, err)
		}
	}
	log.Printf("pushed %d calls onto %q", n, cfg.QueueName)
	return nil
}
