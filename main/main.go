// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ava-labs/avalanchego/database/memdb"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ava-labs/vpvm/envelope"
	"github.com/ava-labs/vpvm/fixtures"
	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/token"
	"github.com/ava-labs/vpvm/vpvm"
)

func main() {
	v, err := getViper()
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if v.GetBool(versionKey) {
		fmt.Printf("%s@%s\n", vpvm.Name, vpvm.Version)
		os.Exit(0)
	}

	lvl, err := log.LvlFromString(v.GetString(logLevelKey))
	if err != nil {
		fmt.Printf("invalid log level: %s\n", err)
		os.Exit(1)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	if err := run(v.GetString(configFileKey), v.GetString(genesisFileKey), v.GetBool(fixturesKey),
		net.JoinHostPort(v.GetString(httpHostKey), strconv.FormatUint(uint64(v.GetUint(httpPortKey)), 10)),
		v.GetDuration(buildIntervalKey),
	); err != nil {
		log.Crit("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(configFile, genesisFile string, withFixtures bool, addr string, buildInterval time.Duration) error {
	config, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	genesis, err := loadGenesis(genesisFile, time.Now())
	if err != nil {
		return err
	}

	registry := host.NewRegistry()
	if err := token.Register(registry); err != nil {
		return err
	}
	if withFixtures {
		if err := fixtures.Register(registry); err != nil {
			return err
		}
	}

	vm := &vpvm.VM{}
	if err := vm.Initialize(memdb.New(), genesis, config, registry, envelope.NewSECP256K1Verifier()); err != nil {
		return err
	}
	defer vm.Shutdown()

	handlers, err := vm.CreateHandlers()
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	for ext, h := range handlers {
		mux.Handle("/ext/"+vpvm.Name+ext, h)
	}
	mux.Handle("/ext/metrics", promhttp.HandlerFor(vm.Metrics(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errs := make(chan error, 2)
	go func() {
		log.Info("serving API", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	go func() {
		errs <- buildBlocks(ctx, vm, buildInterval)
	}()

	select {
	case <-ctx.Done():
		err = nil
	case err = <-errs:
	}
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if serr := server.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	return err
}

// buildBlocks periodically builds a block out of the pending transactions.
// Only storage failures stop it.
func buildBlocks(ctx context.Context, vm *vpvm.VM, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if vm.PendingTxs() == 0 {
			continue
		}
		blk, results, err := vm.BuildBlock()
		if errors.Is(err, vpvm.ErrNoPendingTxs) {
			continue
		}
		if err != nil {
			return err
		}
		committed := 0
		for _, res := range results {
			if res.Committed() {
				committed++
			}
		}
		log.Info("built block", "block", blk.ID(), "height", blk.Height(), "txs", len(results), "committed", committed)
	}
}
