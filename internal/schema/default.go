package schema

import (
	"regexp"
	"strings"
)

type DefaultKind int

const (
	DefaultNone DefaultKind = iota
	DefaultNull
	DefaultCurrentTimestamp
	DefaultString
	DefaultNumber
)

func (k DefaultKind) String() string {
	switch k {
	case DefaultNone:
		return "none"
	case DefaultNull:
		return "null"
	case DefaultCurrentTimestamp:
		return "current_timestamp"
	case DefaultString:
		return "string"
	case DefaultNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Default is a column default value. Value carries the literal text for
// strings and numbers and the original spelling for CURRENT_TIMESTAMP.
type Default struct {
	Kind  DefaultKind
	Value string
}

func NoDefault() Default             { return Default{} }
func NullDefault() Default           { return Default{Kind: DefaultNull} }
func StringDefault(v string) Default { return Default{Kind: DefaultString, Value: v} }
func NumberDefault(v string) Default { return Default{Kind: DefaultNumber, Value: v} }

func CurrentTimestampDefault() Default {
	return Default{Kind: DefaultCurrentTimestamp, Value: "CURRENT_TIMESTAMP"}
}

// IsSet reports whether a DEFAULT clause should be rendered.
func (d Default) IsSet() bool {
	return d.Kind != DefaultNone
}

// Equal compares two defaults as the server evaluates them. String and
// number literals with the same text are equal, since flavors disagree on
// whether COLUMN_DEFAULT is quoted. CURRENT_TIMESTAMP spellings are
// compared by precision.
func (d Default) Equal(o Default) bool {
	switch {
	case d.isLiteral() && o.isLiteral():
		return d.Value == o.Value
	case d.Kind != o.Kind:
		return false
	case d.Kind == DefaultCurrentTimestamp:
		return timestampPrecision(d.Value) == timestampPrecision(o.Value)
	case d.Kind == DefaultNone, d.Kind == DefaultNull:
		return true
	default:
		return d.Value == o.Value
	}
}

func (d Default) isLiteral() bool {
	return d.Kind == DefaultString || d.Kind == DefaultNumber
}

var (
	currentTimestampRe = regexp.MustCompile(`(?i)^current_timestamp(\(\s*(\d*)\s*\))?$`)
	timestampExprRe    = regexp.MustCompile(`(?i)^(?:current_timestamp(?:\(\s*(\d*)\s*\))?|(?:now|localtimestamp|localtime)\(\s*(\d*)\s*\))$`)
)

// IsCurrentTimestamp reports whether s is CURRENT_TIMESTAMP as MySQL
// reports it, with or without fractional precision.
func IsCurrentTimestamp(s string) bool {
	return currentTimestampRe.MatchString(strings.TrimSpace(s))
}

// IsCurrentTimestampExpr also accepts the NOW(), LOCALTIME() and
// LOCALTIMESTAMP() synonyms. Without parentheses those words are plain
// identifiers, not function calls.
func IsCurrentTimestampExpr(s string) bool {
	return timestampExprRe.MatchString(strings.TrimSpace(s))
}

// timestampPrecision returns the fractional precision of a
// CURRENT_TIMESTAMP spelling, "" for none. An explicit 0 and empty
// parentheses both mean none.
func timestampPrecision(s string) string {
	m := timestampExprRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return strings.ToUpper(strings.TrimSpace(s))
	}
	return strings.TrimLeft(m[1]+m[2], "0")
}

// ParseDefault classifies a raw COLUMN_DEFAULT value as MySQL reports it.
// A nil pointer means the column has no default.
func ParseDefault(raw *string) Default {
	if raw == nil {
		return NoDefault()
	}
	v := *raw
	switch {
	case strings.EqualFold(strings.TrimSpace(v), "NULL"):
		return NullDefault()
	case IsCurrentTimestamp(v):
		return Default{Kind: DefaultCurrentTimestamp, Value: strings.TrimSpace(v)}
	default:
		return StringDefault(v)
	}
}
