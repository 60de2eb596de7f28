package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/marciopocebon/bolt-1/app"
	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/version"
	"github.com/marciopocebon/bolt-1/web"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bolt: %v\n", err)
		os.Exit(1)
	}
}

// run boots the application, serves HTTP until a shutdown signal or
// context cancellation, then shuts everything down gracefully.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bolt", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	root := fs.String("root", ".", "installation root directory")
	addr := fs.String("addr", ":8000", "HTTP listen address")
	debug := fs.Bool("debug", false, "enable debug mode")
	tlsCert := fs.String("tls-cert", "", "TLS certificate file, serves HTTPS with -tls-key")
	tlsKey := fs.String("tls-key", "", "TLS private key file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tlsCfg, err := (&web.TLSConfig{CertFile: *tlsCert, KeyFile: *tlsKey}).Build()
	if err != nil {
		return err
	}

	opts := []app.Option{app.WithRoot(*root)}
	if *debug {
		opts = append(opts, app.WithDebug(true))
	}

	a, err := app.New(opts...)
	if err != nil {
		return err
	}

	log := a.Log()
	log.Info("Starting Bolt", map[string]interface{}{
		"version": version.Full(),
		"root":    *root,
		"addr":    *addr,
	})

	if err := a.Initialize(); err != nil {
		return err
	}
	if err := a.Boot(); err != nil {
		return err
	}

	var srvOpts []web.ServerOption
	if tlsCfg != nil {
		srvOpts = append(srvOpts, web.WithTLS(tlsCfg))
	}
	srv := web.NewServer(*addr, a.Router(), log, srvOpts...)
	if err := srv.Start(ctx); err != nil {
		_ = a.Close()
		return err
	}

	waitForShutdown(ctx, log)

	stopErr := srv.Stop(context.Background())
	closeErr := a.Close()
	return errors.Join(stopErr, closeErr)
}

// waitForShutdown blocks until an interrupt or term signal arrives, or
// the context is canceled.
func waitForShutdown(ctx context.Context, log *logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})
	case <-ctx.Done():
		log.Info("Context canceled, shutting down")
	}
}
