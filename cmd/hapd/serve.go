package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pion/logging"
	"github.com/spf13/cobra"

	"github.com/Roba1993/hap/pkg/channel"
	"github.com/Roba1993/hap/pkg/discovery"
	"github.com/Roba1993/hap/pkg/metrics"
	"github.com/Roba1993/hap/pkg/session"
)

var (
	flagListen        string
	flagMetricsListen string
	flagModel         string
	flagAccessoryID   string
	flagName          string
	flagCategory      uint32
	flagConfigNumber  uint32
	flagNoMDNS        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept connections and run a Secure Channel per connection",
	RunE:  runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&flagListen, "listen", ":51826", "TCP address to accept accessory connections on")
	flags.StringVar(&flagMetricsListen, "metrics-listen", ":9100", "HTTP address to serve /metrics on")
	flags.StringVar(&flagModel, "model", "HAP1,1", "accessory model string advertised in the \"md\" TXT key")
	flags.StringVar(&flagAccessoryID, "id", "", "accessory pairing id, format AA:BB:CC:DD:EE:FF (random if empty)")
	flags.StringVar(&flagName, "name", "", "Bonjour instance name (random if empty)")
	flags.Uint32Var(&flagCategory, "category", 1, "HAP accessory category identifier (\"ci\" TXT key)")
	flags.Uint32Var(&flagConfigNumber, "config-number", 1, "current accessory configuration number (\"c#\" TXT key)")
	flags.BoolVar(&flagNoMDNS, "no-mdns", false, "disable Bonjour/mDNS advertisement")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loggerFactory := logging.NewDefaultLoggerFactory()
	log := loggerFactory.NewLogger("hapd")

	accessoryID := flagAccessoryID
	if accessoryID == "" {
		var err error
		accessoryID, err = randomAccessoryID()
		if err != nil {
			return fmt.Errorf("generating accessory id: %w", err)
		}
	}

	ln, err := net.Listen("tcp", flagListen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", flagListen, err)
	}
	log.Infof("listening for accessory connections on %s", ln.Addr())

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		return fmt.Errorf("parsing listen port: %w", err)
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return fmt.Errorf("parsing listen port %q: %w", portStr, err)
	}

	if !flagNoMDNS {
		adv := discovery.NewAdvertiserWithContext(ctx, discovery.AdvertiserConfig{
			InstanceName:  flagName,
			Port:          port,
			LoggerFactory: loggerFactory,
		})
		txt := discovery.TXT{
			ID:           accessoryID,
			Model:        flagModel,
			Category:     flagCategory,
			ConfigNumber: flagConfigNumber,
			StatusFlags:  discovery.StatusFlagUnpaired,
		}
		if err := adv.Start(txt); err != nil {
			return fmt.Errorf("starting mDNS advertisement: %w", err)
		}
		log.Infof("advertising %s as %q", discovery.ServiceHAP, adv.InstanceName())
	}

	go func() {
		log.Infof("serving metrics on %s/metrics", flagMetricsListen)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(flagMetricsListen, mux); err != nil {
			log.Errorf("metrics server: %v", err)
		}
	}()

	handler := http.NewServeMux()
	handler.HandleFunc("/accessories", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "{\"id\":%q,\"model\":%q}\n", accessoryID, flagModel)
	})

	go acceptLoop(ctx, ln, loggerFactory, handler, log)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	cancel()
	return ln.Close()
}

func acceptLoop(ctx context.Context, ln net.Listener, loggerFactory logging.LoggerFactory, handler http.Handler, log logging.LeveledLogger) {
	collector := metrics.Collector{}
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorf("accept: %v", err)
			return
		}
		go serveConn(ctx, conn, loggerFactory, collector, handler, log)
	}
}

func serveConn(ctx context.Context, conn net.Conn, loggerFactory logging.LoggerFactory, collector metrics.Collector, handler http.Handler, log logging.LeveledLogger) {
	// No pair-verify collaborator is wired up here (out of scope per
	// spec.md §1), so this PendingSession is never fed and every
	// connection accepted by serve stays in passthrough mode for its
	// lifetime. pair-test exercises the encrypted path instead.
	pending := session.NewPendingSession()
	ch := channel.New(conn, pending, loggerFactory, collector)

	bc := newBridgeConn(ch.Bridge(), conn.RemoteAddr())
	go http.Serve(newSingleConnListener(bc), handler)

	if err := ch.Run(ctx); err != nil {
		log.Errorf("channel from %s: %v", conn.RemoteAddr(), err)
	}
}
