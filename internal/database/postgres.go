package database

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	host := cmp.Or(cfg.Host, "localhost")
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	params := []string{
		"host=" + host,
		fmt.Sprintf("port=%d", port),
		"user=" + cfg.User,
		"dbname=" + cfg.Name,
	}
	if cfg.Password != "" {
		params = append(params, "password="+cfg.Password)
	}

	options := map[string]string{"sslmode": "disable"}
	maps.Copy(options, cfg.Options)
	for _, key := range slices.Sorted(maps.Keys(options)) {
		params = append(params, key+"="+options[key])
	}

	return strings.Join(params, " "), nil
}
