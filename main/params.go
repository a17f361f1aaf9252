// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/vpvm/vpvm"
)

const (
	versionKey       = "version"
	configFileKey    = "config-file"
	genesisFileKey   = "genesis-file"
	httpHostKey      = "http-host"
	httpPortKey      = "http-port"
	logLevelKey      = "log-level"
	buildIntervalKey = "build-interval"
	fixturesKey      = "fixtures"

	envPrefix = "VPVM"
)

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(vpvm.Name, flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints version and quit")
	fs.String(configFileKey, "", "Path to the engine config file (json, yaml or toml)")
	fs.String(genesisFileKey, "", "Path to the genesis file")
	fs.String(httpHostKey, "127.0.0.1", "Address of the HTTP API server")
	fs.Uint(httpPortKey, 9650, "Port of the HTTP API server")
	fs.String(logLevelKey, "info", "Log level")
	fs.Duration(buildIntervalKey, time.Second, "How often pending transactions are built into a block")
	fs.Bool(fixturesKey, false, "If true, registers the test fixture programs")

	return fs
}

// getViper returns the viper environment for the binary
func getViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := buildFlagSet()
	pflag.CommandLine.AddGoFlagSet(fs)
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	return v, nil
}

// loadConfig overlays the file at [path], if any, on the default config.
func loadConfig(path string) (vpvm.Config, error) {
	config := vpvm.DefaultConfig()
	if path == "" {
		return config, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return config, fmt.Errorf("couldn't read config file: %w", err)
	}
	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("couldn't parse config file: %w", err)
	}
	return config, config.Validate()
}

// loadGenesis reads the genesis at [path]. Without one the ledger starts
// empty at [now].
func loadGenesis(path string, now time.Time) (*vpvm.Genesis, error) {
	if path == "" {
		return &vpvm.Genesis{Timestamp: now.Unix()}, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("couldn't read genesis file: %w", err)
	}
	genesis := &vpvm.Genesis{}
	if err := v.Unmarshal(genesis); err != nil {
		return nil, fmt.Errorf("couldn't parse genesis file: %w", err)
	}
	return genesis, nil
}
