// Command chatter is a terminal client for the Mwalimu chat: it prints the
// replay and live messages and posts every line typed on stdin.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	p := printer{out: os.Stdout, colours: cfg.Colours}
	readErr := make(chan error, 1)
	go func() {
		for {
			e, err := l.Next()
			if err != nil {
				readErr <- err
				return
			}
			p.event(e)
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := l.Post(cfg.Author, line); err != nil {
				return fmt.Errorf("post: %w", err)
			}
		}
	}
}
