package request

import "strings"

// SplitStatements splits sql on top-level semicolons. Semicolons inside
// quoted strings, escape strings (E'...'), quoted identifiers, dollar-quoted
// bodies and comments do not terminate a statement. Empty statements are
// dropped and the rest are trimmed.
func SplitStatements(sql string) []string {
	var (
		out   []string
		start int
		i     int
	)

	emit := func(end int) {
		if s := strings.TrimSpace(sql[start:end]); s != "" && !onlyComments(s) {
			out = append(out, s)
		}
	}

	for i < len(sql) {
		switch c := sql[i]; {
		case (c == 'E' || c == 'e') && i+1 < len(sql) && sql[i+1] == '\'' && !inIdent(sql, i):
			i = skipEscaped(sql, i+1)
		case c == '\'' || c == '"':
			i = skipQuoted(sql, i, c)
		case c == '-' && strings.HasPrefix(sql[i:], "--"):
			i = skipLine(sql, i)
		case c == '/' && strings.HasPrefix(sql[i:], "/*"):
			i = skipBlock(sql, i)
		case c == '$' && !inIdent(sql, i):
			i = skipDollar(sql, i)
		case c == ';':
			emit(i)
			i++
			start = i
		default:
			i++
		}
	}
	emit(len(sql))
	return out
}

// CountStatements returns the number of statements in sql.
func CountStatements(sql string) int {
	return len(SplitStatements(sql))
}

// skipQuoted returns the index after the quote closing the one at i.
// Doubled quotes are escapes.
func skipQuoted(sql string, i int, quote byte) int {
	i++
	for i < len(sql) {
		if sql[i] == quote {
			if i+1 < len(sql) && sql[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

// skipEscaped returns the index after the quote closing the escape string
// opened at i. A backslash escapes the byte after it.
func skipEscaped(sql string, i int) int {
	i++
	for i < len(sql) {
		switch sql[i] {
		case '\\':
			i += 2
			continue
		case '\'':
			if i+1 < len(sql) && sql[i+1] == '\'' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(sql)
}

func skipLine(sql string, i int) int {
	if n := strings.IndexByte(sql[i:], '\n'); n >= 0 {
		return i + n + 1
	}
	return len(sql)
}

func skipBlock(sql string, i int) int {
	if n := strings.Index(sql[i+2:], "*/"); n >= 0 {
		return i + 2 + n + 2
	}
	return len(sql)
}

// skipDollar skips a $tag$ ... $tag$ body starting at i. A '$' that does not
// open a tag, such as a positional parameter, is skipped alone.
func skipDollar(sql string, i int) int {
	j := i + 1
	for j < len(sql) && isTagByte(sql[j]) {
		j++
	}
	if j >= len(sql) || sql[j] != '$' || (j > i+1 && isDigit(sql[i+1])) {
		return i + 1
	}
	tag := sql[i : j+1]
	if n := strings.Index(sql[j+1:], tag); n >= 0 {
		return j + 1 + n + len(tag)
	}
	return len(sql)
}

// inIdent reports whether the byte at i continues an identifier, where '$'
// and 'E' are ordinary characters.
func inIdent(sql string, i int) bool {
	return i > 0 && (isTagByte(sql[i-1]) || sql[i-1] == '$')
}

func isTagByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// onlyComments reports whether s consists of comments and whitespace.
func onlyComments(s string) bool {
	i := 0
	for i < len(s) {
		switch {
		case s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r':
			i++
		case strings.HasPrefix(s[i:], "--"):
			i = skipLine(s, i)
		case strings.HasPrefix(s[i:], "/*"):
			i = skipBlock(s, i)
		default:
			return false
		}
	}
	return true
}
