// Package syncq keeps player actions that could not reach the server so the
// life command can replay them later.
package syncq

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

type Command struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	PlayerID  string    `json:"player_id"`
	Action    string    `json:"action"`
	QueuedAt  time.Time `json:"queued_at"`
}

// Dir is where the queue file lives; tests point it at a temp dir.
var Dir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".life"), nil
}

func queuePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "queue.json"), nil
}

func Load() ([]Command, error) {
	path, err := queuePath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Save(commands []Command) error {
	path, err := queuePath()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// Push queues cmd. A newer action for the same session and player replaces
// the older one, matching how the server keeps only the last submission.
func Push(cmd Command) error {
	commands, err := Load()
	if err != nil {
		return err
	}
	kept := commands[:0]
	for _, c := range commands {
		if c.SessionID == cmd.SessionID && c.PlayerID == cmd.PlayerID {
			continue
		}
		kept = append(kept, c)
	}
	return Save(append(kept, cmd))
}
