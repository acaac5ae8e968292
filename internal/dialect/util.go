package dialect

import (
	"regexp"
	"strings"
)

// QuoteIdentifier backtick-quotes a table, column, index or constraint
// name, doubling embedded backticks.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteIdentifiers quotes each name and joins them with ", ".
func QuoteIdentifiers(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

var stringEscaper = strings.NewReplacer(`\`, `\\`, `'`, `''`)

// QuoteString renders s as a single-quoted SQL literal. Single quotes are
// doubled and backslashes escaped.
func QuoteString(s string) string {
	return "'" + stringEscaper.Replace(s) + "'"
}

// UnquoteString reverses a quoted literal as MariaDB prints it in
// information_schema, accepting both '' and \' escapes.
func UnquoteString(s string) string {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return s
	}
	inner := s[1 : len(s)-1]
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case c == '\'' && i+1 < len(inner) && inner[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case c == '\\' && i+1 < len(inner):
			i++
			switch inner[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte(inner[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// DefaultNormalizeExtra collapses whitespace and drops MySQL 8's
// DEFAULT_GENERATED marker, which is not valid in a column definition.
func DefaultNormalizeExtra(extra string) string {
	var kept []string
	for _, f := range strings.Fields(extra) {
		if strings.EqualFold(f, defaultGenerated) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

var binaryLiteralRe = regexp.MustCompile(`(?i)^(b'[01]*'|x'[0-9a-f]*'|0x[0-9a-f]+|0b[01]+)$`)

// IsBinaryLiteral reports whether s is a bit-value or hexadecimal literal
// such as b'101' or 0x1F. These must be rendered unquoted.
func IsBinaryLiteral(s string) bool {
	return binaryLiteralRe.MatchString(strings.TrimSpace(s))
}
