package migration

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

var lastCharaPattern = regexp.MustCompile(`--\s+Last character:\s+(\d+)`)

// LastCharacter reads the highest character id covered by a previously
// generated script. The second return is false when no script exists or
// no trailer can be found, which callers treat as a first run.
func LastCharacter(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	match := lastCharaPattern.FindSubmatch(data)
	if match == nil {
		return 0, false
	}
	id, err := strconv.Atoi(string(match[1]))
	if err != nil {
		return 0, false
	}
	return id, true
}

// Statements splits a generated script into executable statements,
// dropping comment lines. CREATE INDEX CONCURRENTLY cannot run inside a
// transaction block, so the script has to be executed statement by
// statement rather than as one batch.
func Statements(script string) []string {
	var stmts []string
	var cur []string

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur = append(cur, trimmed)
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.Join(cur, "\n")
			stmts = append(stmts, strings.TrimSuffix(stmt, ";"))
			cur = nil
		}
	}
	if len(cur) > 0 {
		stmts = append(stmts, strings.Join(cur, "\n"))
	}
	return stmts
}
