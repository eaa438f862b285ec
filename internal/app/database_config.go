package app

import (
	"strings"

	"github.com/openedu/videovault/internal/database"
)

// DatabaseClientConfig translates the configured database section into the
// connection options the database package understands.
func (c DatabaseConfig) DatabaseClientConfig() database.Config {
	cfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:   c.Path,
		DSN:    c.DSN,
	}

	switch cfg.Driver {
	case "postgres", "postgresql":
		cfg.Host = c.Postgres.Host
		cfg.Port = c.Postgres.Port
		cfg.Name = c.Postgres.Database
		cfg.User = c.Postgres.Username
		cfg.Password = c.Postgres.Password
	case "mysql":
		cfg.Host = c.MySQL.Host
		cfg.Port = c.MySQL.Port
		cfg.Name = c.MySQL.Database
		cfg.User = c.MySQL.Username
		cfg.Password = c.MySQL.Password
	}

	return cfg
}
