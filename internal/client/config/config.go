// Package config holds the settings of the gophauth CLI.
package config

import (
	"flag"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// Config holds runtime settings for the CLI.
type Config struct {
	// ServerEndpointAddr is host:port of the gRPC endpoint.
	ServerEndpointAddr string
	// SessionFile is the SQLite file keeping the signed-in session.
	SessionFile string
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionFile = "gophauth-session.db"
}

// Load applies defaults, then the -a and -f flags found in args.
// Unrelated arguments are ignored.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs := flag.NewFlagSet("gophauth", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the gRPC server")
	fs.StringVar(&cfg.SessionFile, "f", cfg.SessionFile, "session database file")

	if err := fs.Parse(flagx.FilterArgs(args, []string{"-a", "-f"})); err != nil {
		return nil, err
	}
	return cfg, nil
}
