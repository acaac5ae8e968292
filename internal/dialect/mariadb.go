package dialect

import (
	"regexp"
	"strings"

	"db-sync/internal/schema"
)

// MariaDBDialect shares MySQL's catalog layout but reports COLUMN_DEFAULT
// as SQL text (10.2.7+): string literals arrive quoted, NULL as the
// keyword, and numbers and expressions bare.
type MariaDBDialect struct {
	MysqlDialect
}

func (d *MariaDBDialect) Name() string { return "mariadb" }

var numericLiteralRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func (d *MariaDBDialect) ParseDefault(raw *string, extra string) schema.Default {
	if raw == nil {
		return schema.NoDefault()
	}
	v := strings.TrimSpace(*raw)
	switch {
	case strings.EqualFold(v, "NULL"):
		return schema.NullDefault()
	case len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'':
		return schema.StringDefault(UnquoteString(v))
	case schema.IsCurrentTimestampExpr(v):
		return schema.Default{Kind: schema.DefaultCurrentTimestamp, Value: v}
	case numericLiteralRe.MatchString(v), IsBinaryLiteral(v):
		return schema.NumberDefault(v)
	default:
		// bare expression
		return schema.NumberDefault("(" + v + ")")
	}
}
