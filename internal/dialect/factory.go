package dialect

import (
	"fmt"
	"strings"
)

// GetDialect returns the Dialect for a server flavor ("mysql" or "mariadb").
func GetDialect(flavor string) (Dialect, error) {
	switch strings.ToLower(flavor) {
	case "mysql":
		return &MysqlDialect{}, nil
	case "mariadb":
		return &MariaDBDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported server flavor %q (must be mysql or mariadb)", flavor)
	}
}

// FlavorFromVersion maps a SELECT VERSION() result to a flavor name.
func FlavorFromVersion(version string) string {
	if strings.Contains(strings.ToLower(version), "mariadb") {
		return "mariadb"
	}
	return "mysql"
}

// Ensure interface implementation
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*MariaDBDialect)(nil)
