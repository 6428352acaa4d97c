package domain

import (
	"encoding/json"
	"time"
)

// ActivityEvent is one public action from the platform's event feed.
// Payload keeps the kind-specific fields opaque; PushEvent payloads
// carry a "commits" array.
type ActivityEvent struct {
	ID        string          `json:"id"`
	Kind      string          `json:"type"`
	Actor     Actor           `json:"actor"`
	Repo      Repo            `json:"repo"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

type Actor struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

type Repo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CommitCount returns the number of commit entries in a push event's
// payload, and 0 for any other payload shape.
func (e ActivityEvent) CommitCount() int {
	if len(e.Payload) == 0 {
		return 0
	}
	var payload struct {
		Commits []json.RawMessage `json:"commits"`
	}
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return 0
	}
	return len(payload.Commits)
}

type UserProfile struct {
	Login       string    `json:"login"`
	ID          int64     `json:"id"`
	PublicRepos int       `json:"public_repos"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repository struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Stargazers int       `json:"stargazers_count"`
	CreatedAt  time.Time `json:"created_at"`
}
