package database

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
}

func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql configuration requires user and database name")
	}

	host := cmp.Or(cfg.Host, "127.0.0.1")
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	credentials := cfg.User
	if cfg.Password != "" {
		credentials += ":" + cfg.Password
	}

	options := map[string]string{
		"charset":   "utf8mb4",
		"parseTime": "True",
		"loc":       "Local",
	}
	maps.Copy(options, cfg.Options)

	pairs := make([]string, 0, len(options))
	for _, key := range slices.Sorted(maps.Keys(options)) {
		pairs = append(pairs, key+"="+options[key])
	}

	return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s",
		credentials, host, port, cfg.Name, strings.Join(pairs, "&")), nil
}
