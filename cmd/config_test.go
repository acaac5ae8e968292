package cmd_test

import (
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db-sync/cmd"
)

func readConfig(t *testing.T, kind, content string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType(kind)
	require.NoError(t, v.ReadConfig(strings.NewReader(content)))
	return v
}

func TestLoadDBConfig_YAML(t *testing.T) {
	v := readConfig(t, "yaml", `
source:
  host: db.internal
  port: 3307
  user: root
  password: secret
  database: app
  flavor: MariaDB
`)

	c, err := cmd.LoadDBConfig(v, "source")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", c.Host)
	assert.Equal(t, 3307, c.Port)
	assert.Equal(t, "mariadb", c.Flavor)
	assert.Equal(t, "app", c.SchemaName())
	assert.Equal(t, "root@db.internal:3307/app", c.String())

	parsed, err := mysql.ParseDSN(c.FormatDSN())
	require.NoError(t, err)
	assert.Equal(t, "root", parsed.User)
	assert.Equal(t, "secret", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "db.internal:3307", parsed.Addr)
	assert.Equal(t, "app", parsed.DBName)
}

func TestLoadDBConfig_DotEnvDefaults(t *testing.T) {
	v := readConfig(t, "env", "TARGET_USER=admin\nTARGET_PASSWORD=pw\nTARGET_DATABASE=app_prod\n")

	c, err := cmd.LoadDBConfig(v, "target")
	require.NoError(t, err)

	assert.Equal(t, "localhost", c.Host)
	assert.Equal(t, 3306, c.Port)
	assert.Equal(t, "auto", c.Flavor)
	assert.Equal(t, "TARGET", c.Prefix())
	assert.Equal(t, "admin@localhost:3306/app_prod", c.String())
}

func TestLoadDBConfig_MissingSettings(t *testing.T) {
	v := readConfig(t, "env", "SOURCE_HOST=db\n")

	_, err := cmd.LoadDBConfig(v, "source")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "SOURCE_USER is required")
	assert.Contains(t, err.Error(), "SOURCE_PASSWORD is required")
	assert.Contains(t, err.Error(), "SOURCE_DATABASE is required")
}

func TestLoadDBConfig_Port(t *testing.T) {
	base := "SOURCE_USER=u\nSOURCE_PASSWORD=p\nSOURCE_DATABASE=d\n"

	_, err := cmd.LoadDBConfig(readConfig(t, "env", base+"SOURCE_PORT=abc\n"), "source")
	assert.ErrorContains(t, err, "is not a number")

	_, err = cmd.LoadDBConfig(readConfig(t, "env", base+"SOURCE_PORT=70000\n"), "source")
	assert.ErrorContains(t, err, "SOURCE_PORT 70000 is out of range")
}

func TestLoadDBConfig_DSN(t *testing.T) {
	v := readConfig(t, "yaml", `
source:
  dsn: "reader:pw@tcp(10.0.0.5:3306)/shop?parseTime=true"
target:
  dsn: "reader:pw@tcp(10.0.0.6:3306)/"
`)

	c, err := cmd.LoadDBConfig(v, "source")
	require.NoError(t, err)
	assert.Equal(t, "shop", c.SchemaName())
	assert.Equal(t, "reader:pw@tcp(10.0.0.5:3306)/shop?parseTime=true", c.FormatDSN())
	assert.Equal(t, "reader@10.0.0.5:3306/shop", c.String())

	_, err = cmd.LoadDBConfig(v, "target")
	assert.ErrorContains(t, err, "TARGET_DSN does not select a database")
}

func TestLoadDBConfig_Flavor(t *testing.T) {
	v := readConfig(t, "yaml", `
source:
  user: u
  password: p
  database: d
  flavor: postgres
`)

	_, err := cmd.LoadDBConfig(v, "source")
	assert.ErrorContains(t, err, `SOURCE_FLAVOR "postgres" is not one of auto, mysql, mariadb`)
}
