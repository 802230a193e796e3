// Package ddl defines a small, backend-agnostic model for CREATE TABLE
// statements and a renderer parameterized by the dialect's identifier
// quoting.
//
// Backend packages (internal/storage/<kind>/ddl) supply the type mapping and
// quoting; this package owns the statement layout:
//
//	CREATE TABLE <fqn> (
//	  <col1> <type1> [NOT NULL],
//	  <col2> <type2>
//	)
package ddl

import (
	"fmt"
	"strings"
)

// QuoteFunc quotes a single identifier segment.
type QuoteFunc func(string) string

// BuildCreateTableSQL renders t. A nil quote emits names verbatim.
func BuildCreateTableSQL(t TableDef, quote QuoteFunc) (string, error) {
	if quote == nil {
		quote = func(s string) string { return s }
	}
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: table %s: at least one column is required", fqn)
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)",
		QuoteFQN(fqn, quote),
		strings.Join(cols, ",\n  "),
	), nil
}

// QuoteFQN quotes every non-empty dotted segment of fqn.
func QuoteFQN(fqn string, quote QuoteFunc) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}

// DoubleQuote quotes an identifier with ANSI double quotes.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
