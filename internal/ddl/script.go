package ddl

import (
	"bufio"
	"io"
	"strings"
)

// Script is an ordered sync plan.
type Script []Statement

// Lines serializes the script: every statement trimmed and terminated
// by a single ";", section comments left unterminated and preceded by a
// blank line. Empty statements are skipped.
func (s Script) Lines() []string {
	var lines []string
	for _, stmt := range s {
		text := strings.TrimSpace(stmt.SQL())
		if text == "" {
			continue
		}
		if _, ok := stmt.(Comment); ok {
			if len(lines) > 0 && lines[len(lines)-1] != "" {
				lines = append(lines, "")
			}
			lines = append(lines, text)
			continue
		}
		if !strings.HasSuffix(text, ";") {
			text += ";"
		}
		lines = append(lines, text)
	}
	return lines
}

// String returns the serialized script, one statement per line.
func (s Script) String() string {
	lines := s.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteTo writes the serialized script to w.
func (s Script) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, line := range s.Lines() {
		written, err := bw.WriteString(line + "\n")
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Count returns the number of statements that change the target, not
// counting comments and the check-toggling frame.
func (s Script) Count() int {
	n := 0
	for _, stmt := range s {
		switch stmt.(type) {
		case Comment, ForeignKeyChecks:
		default:
			n++
		}
	}
	return n
}
