package query

import (
	"strings"
	"unicode"
)

var allowedLeadingKeywords = map[string]struct{}{
	"SELECT": {},
	"WITH":   {},
	"VALUES": {},
}

// forbiddenKeywords are rejected wherever they appear outside literals.
var forbiddenKeywords = map[string]struct{}{
	"INSERT":   {},
	"UPDATE":   {},
	"DELETE":   {},
	"DROP":     {},
	"ALTER":    {},
	"CREATE":   {},
	"TRUNCATE": {},
	"ATTACH":   {},
	"DETACH":   {},
	"PRAGMA":   {},
	"VACUUM":   {},
	"GRANT":    {},
	"REVOKE":   {},
	"MERGE":    {},
	"COPY":     {},
	"INTO":     {},
	"EXPORT":   {},
	"IMPORT":   {},
	"INSTALL":  {},
	"LOAD":     {},
	"CALL":     {},
}

// Guard admits exactly one read statement.
type Guard struct{}

func (Guard) Check(statement string) error {
	reject := func(reason string) error {
		return &ForbiddenStatementError{Statement: statement, Reason: reason}
	}

	masked, ok := maskSQL(statement)
	if !ok {
		return reject("unterminated string literal or comment")
	}
	masked = strings.TrimSpace(masked)
	for strings.HasSuffix(masked, ";") {
		masked = strings.TrimSpace(strings.TrimSuffix(masked, ";"))
	}
	if masked == "" {
		return reject("empty statement")
	}
	if strings.Contains(masked, ";") {
		return reject("multiple statements are not allowed")
	}

	words := keywords(masked)
	if len(words) == 0 {
		return reject("statement does not start with a keyword")
	}
	if _, ok := allowedLeadingKeywords[words[0]]; !ok {
		return reject("only SELECT, WITH and VALUES statements are allowed, got " + words[0])
	}
	for _, word := range words {
		if _, bad := forbiddenKeywords[word]; bad {
			return reject(word + " is not allowed in a read-only statement")
		}
	}
	return nil
}

// maskSQL blanks out comments, string literals and quoted identifiers so that
// keyword scanning only sees SQL structure. It reports false when a literal or
// block comment never closes.
func maskSQL(statement string) (string, bool) {
	var b strings.Builder
	b.Grow(len(statement))
	runes := []rune(statement)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			b.WriteRune(' ')
		case ch == '/' && i+1 < len(runes) && runes[i+1] == '*':
			end := -1
			for j := i + 2; j+1 < len(runes); j++ {
				if runes[j] == '*' && runes[j+1] == '/' {
					end = j + 1
					break
				}
			}
			if end < 0 {
				return "", false
			}
			i = end
			b.WriteRune(' ')
		case ch == '\'' || ch == '"' || ch == '`' || ch == '[':
			closing := ch
			if ch == '[' {
				closing = ']'
			}
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] != closing {
					continue
				}
				// doubled quote is an escaped quote
				if closing != ']' && j+1 < len(runes) && runes[j+1] == closing {
					j++
					continue
				}
				end = j
				break
			}
			if end < 0 {
				return "", false
			}
			i = end
			if ch == '\'' {
				b.WriteString("''")
			} else {
				b.WriteString("x")
			}
		default:
			b.WriteRune(ch)
		}
	}
	return b.String(), true
}

func keywords(masked string) []string {
	fields := strings.FieldsFunc(masked, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if unicode.IsDigit([]rune(field)[0]) {
			continue
		}
		out = append(out, strings.ToUpper(field))
	}
	return out
}
