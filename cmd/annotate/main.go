package main

import (
	"os"
	"strings"

	"annotate-cli/internal/cli"
)

var subcommands = map[string]bool{
	"open": true, "spans": true, "annotations": true, "catalog": true, "types": true,
	"texts": true, "review": true, "config": true, "docs": true, "help": true, "completion": true,
}

func isTextID(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.HasPrefix(s, "-") && !subcommands[s]
}

func rewriteOpenArgs(argv []string) []string {
	// `annotate <text-id>` works like `annotate open <text-id>`. Cobra would
	// treat the id as an unknown subcommand, so argv is rewritten before parsing.
	// Persistent flags may come first, so look for the first positional token.
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--api":          true,
		"--token":        true,
		"--annotator":    true,
		"--workspace-db": true,
		"--format":       true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	insertAt := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "open")
		out = append(out, argv[i:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isTextID(argv[i+1]) {
				return insertAt(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		if isTextID(a) {
			return insertAt(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteOpenArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
