package portal

import (
	"os"
	"strings"
)

// LoadToken reads a previously saved restore token. A missing or unreadable
// file is not an error: it just means the fresh permission flow runs.
func LoadToken(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveToken persists the restore token from a Start response. An empty
// token removes a stale file so the next run does not present a token the
// compositor already invalidated.
func SaveToken(path, token string) error {
	if path == "" {
		return nil
	}
	if token == "" {
		err := os.Remove(path)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}
