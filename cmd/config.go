package cmd

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const (
	defaultHost   = "localhost"
	defaultPort   = 3306
	defaultFlavor = "auto"
)

// DBConfig describes one side of a sync run.
type DBConfig struct {
	Side     string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	DSN      string
	Flavor   string
}

// LoadDBConfig resolves the configuration of side ("source" or "target").
// Nested keys (source.host) and flat .env keys (SOURCE_HOST) are both
// accepted; environment variables override either.
func LoadDBConfig(v *viper.Viper, side string) (*DBConfig, error) {
	c := &DBConfig{
		Side:     side,
		Host:     lookup(v, side, "host"),
		User:     lookup(v, side, "user"),
		Password: lookup(v, side, "password"),
		Database: lookup(v, side, "database"),
		DSN:      lookup(v, side, "dsn"),
		Flavor:   strings.ToLower(lookup(v, side, "flavor")),
		Port:     defaultPort,
	}
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Flavor == "" {
		c.Flavor = defaultFlavor
	}
	if raw := lookup(v, side, "port"); raw != "" {
		port, err := cast.ToIntE(raw)
		if err != nil {
			return nil, fmt.Errorf("%s port %q is not a number", c.Prefix(), raw)
		}
		c.Port = port
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func lookup(v *viper.Viper, side, field string) string {
	for _, key := range []string{side + "." + field, side + "_" + field} {
		if v.IsSet(key) {
			return strings.TrimSpace(v.GetString(key))
		}
	}
	return ""
}

// Prefix is the .env key prefix of the side, e.g. SOURCE.
func (c *DBConfig) Prefix() string {
	return strings.ToUpper(c.Side)
}

// Validate reports every missing or malformed setting.
func (c *DBConfig) Validate() error {
	var err error
	switch c.Flavor {
	case "auto", "mysql", "mariadb":
	default:
		err = multierr.Append(err, fmt.Errorf("%s_FLAVOR %q is not one of auto, mysql, mariadb", c.Prefix(), c.Flavor))
	}

	if c.DSN != "" {
		parsed, perr := mysql.ParseDSN(c.DSN)
		if perr != nil {
			return multierr.Append(err, fmt.Errorf("%s_DSN is invalid: %w", c.Prefix(), perr))
		}
		if parsed.DBName == "" {
			err = multierr.Append(err, fmt.Errorf("%s_DSN does not select a database", c.Prefix()))
		}
		return err
	}

	if c.User == "" {
		err = multierr.Append(err, fmt.Errorf("%s_USER is required in config file", c.Prefix()))
	}
	if c.Password == "" {
		err = multierr.Append(err, fmt.Errorf("%s_PASSWORD is required in config file", c.Prefix()))
	}
	if c.Database == "" {
		err = multierr.Append(err, fmt.Errorf("%s_DATABASE is required in config file", c.Prefix()))
	}
	if c.Port < 1 || c.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("%s_PORT %d is out of range", c.Prefix(), c.Port))
	}
	return err
}

// FormatDSN returns the driver DSN, either the configured one or one
// assembled from the discrete settings.
func (c *DBConfig) FormatDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.Database
	return mc.FormatDSN()
}

// SchemaName is the database whose catalog is introspected.
func (c *DBConfig) SchemaName() string {
	if c.DSN != "" {
		if parsed, err := mysql.ParseDSN(c.DSN); err == nil {
			return parsed.DBName
		}
	}
	return c.Database
}

// String identifies the side in logs without leaking credentials.
func (c *DBConfig) String() string {
	if c.DSN != "" {
		if parsed, err := mysql.ParseDSN(c.DSN); err == nil {
			return fmt.Sprintf("%s@%s/%s", parsed.User, parsed.Addr, parsed.DBName)
		}
	}
	return fmt.Sprintf("%s@%s/%s", c.User, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Database)
}
