package config

import (
	"os"
	"path/filepath"
	"strings"
)

// netrcCredentials looks up login/password for host in ~/.netrc. It handles
// the token stream form ("machine HOST login USER password PASS", possibly
// across lines), falls back to a "default" entry for unlisted hosts, and
// skips macdef blocks and unknown tokens.
func netrcCredentials(host string) (login, password string, ok bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", false
	}
	data, err := os.ReadFile(filepath.Join(home, ".netrc"))
	if err != nil {
		return "", "", false
	}
	return parseNetrc(string(data), host)
}

func parseNetrc(content, host string) (login, password string, ok bool) {
	tokens := strings.Fields(content)

	type creds struct{ login, password string }
	var machine, fallback creds
	hostSeen := false

	// target points at the creds the current block fills: the matched
	// machine entry, the default entry, or nil while skipping.
	var target *creds

	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "machine":
			target = nil
			if i+1 < len(tokens) && tokens[i+1] == host && !hostSeen {
				hostSeen = true
				target = &machine
			}
			i++
		case "default":
			target = &fallback
		case "login":
			if target != nil && i+1 < len(tokens) {
				target.login = tokens[i+1]
			}
			i++
		case "password":
			if target != nil && i+1 < len(tokens) {
				target.password = tokens[i+1]
			}
			i++
		case "account":
			i++
		case "macdef":
			// A macdef runs to the next blank line; Fields collapsed those,
			// so skip to the next entry keyword instead.
			for i+1 < len(tokens) && tokens[i+1] != "machine" && tokens[i+1] != "default" {
				i++
			}
		}
	}

	if machine.login != "" && machine.password != "" {
		return machine.login, machine.password, true
	}
	if !hostSeen && fallback.login != "" && fallback.password != "" {
		return fallback.login, fallback.password, true
	}
	return "", "", false
}
