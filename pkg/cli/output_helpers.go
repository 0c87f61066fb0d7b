package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fabianbadoi/pine/internal/compile"
)

// commentError renders an error as SQL line comments, one "-- " prefixed
// line per message line. Compiler errors carry their source offset and a
// suggested remedy.
func commentError(err error) string {
	var ce compile.Error
	if errors.As(err, &ce) {
		return fmt.Sprintf("-- error: %s (offset %d)\n-- hint: %s\n",
			ce.Error(), ce.Position(), ce.Remedy())
	}

	var b strings.Builder
	for _, line := range strings.Split(err.Error(), "\n") {
		b.WriteString("-- error: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// formatContexts renders the context registry as a small fixed-width
// table. Passwords are never shown.
func formatContexts(cfg *UserConfig) string {
	names := make([]string, 0, len(cfg.Contexts))
	for name := range cfg.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%-2s %-20s %-30s %s\n", "", "NAME", "HOST", "DATABASE")
	for _, name := range names {
		ctx := cfg.Contexts[name]
		marker := ""
		if name == cfg.CurrentContext {
			marker = "*"
		}
		fmt.Fprintf(&b, "%-2s %-20s %-30s %s\n",
			marker, name, fmt.Sprintf("%s:%d", ctx.Host, ctx.Port), ctx.Database)
	}
	return b.String()
}
