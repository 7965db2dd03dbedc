// Package shellquote provides utilities for constructing shell-quoted command strings.
package shellquote

import (
	"strings"
)

// shellEscapeDQ returns a bash/zsh-safe argument using double quotes when needed.
// In double quotes, these must be escaped: \ " $ `.
func shellEscapeDQ(s string) string {
	if s == "" {
		return `""`
	}

	// "Simple" chars safe to keep unquoted.
	const safe = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_@%+=:,./-"

	needsQuotes := false

	for _, r := range s {
		if !strings.ContainsRune(safe, r) {
			needsQuotes = true

			break
		}
	}

	if !needsQuotes {
		return s
	}

	var b strings.Builder
	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '\\', '"', '$', '`':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			// Newlines are rare in CLI args; keep it pasteable.
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}

	b.WriteByte('"')

	return b.String()
}

// Join constructs a shell-pasteable command line from bin and args.
func Join(bin string, args []string) string {
	var cmdLine strings.Builder

	cmdLine.WriteString(shellEscapeDQ(bin))

	for _, arg := range args {
		cmdLine.WriteByte(' ')
		cmdLine.WriteString(shellEscapeDQ(arg))
	}

	return cmdLine.String()
}
