package githubclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitproof/internal/domain"
)

const (
	defaultBaseURL = "https://api.github.com"
	eventsPerPage  = 100
	maxEventPages  = 3
	maxRepoPages   = 10
)

// Client talks to the platform's public REST API. A missing token
// lowers rate limits but does not disable function. No call is
// retried; classification of failures is left to the domain sentinels.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchUserEvents pulls up to 3 pages of 100 events each from the
// per-user public-events feed, stopping early at an empty page. The
// 300-event cap is a cost bound, not a correctness requirement.
func (c *Client) FetchUserEvents(ctx context.Context, username string) ([]domain.ActivityEvent, error) {
	var all []domain.ActivityEvent
	for page := 1; page <= maxEventPages; page++ {
		path := fmt.Sprintf("/users/%s/events?per_page=%d&page=%d", url.PathEscape(username), eventsPerPage, page)
		var events []domain.ActivityEvent
		if err := c.getJSON(ctx, path, username, &events); err != nil {
			return nil, err
		}
		if len(events) == 0 {
			break
		}
		all = append(all, events...)
	}
	return all, nil
}

func (c *Client) FetchUser(ctx context.Context, username string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(username), username, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) fetchUserRepos(ctx context.Context, username string, page int) ([]domain.Repository, error) {
	path := fmt.Sprintf("/users/%s/repos?per_page=100&page=%d", url.PathEscape(username), page)
	var repos []domain.Repository
	if err := c.getJSON(ctx, path, username, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// CountTotalStars sums stargazer counts across the subject's
// repositories, paging up to 1000 repos and capping with a warning
// beyond that rather than failing.
func (c *Client) CountTotalStars(ctx context.Context, username string) (int, error) {
	total := 0
	for page := 1; ; page++ {
		repos, err := c.fetchUserRepos(ctx, username, page)
		if err != nil {
			return 0, err
		}
		if len(repos) == 0 {
			break
		}
		for _, repo := range repos {
			total += repo.Stargazers
		}
		if page >= maxRepoPages {
			log.Printf("user %s has more than %d repos, capping star count", username, maxRepoPages*100)
			break
		}
	}
	return total, nil
}

func (c *Client) CountPublicRepos(ctx context.Context, username string) (int, error) {
	profile, err := c.FetchUser(ctx, username)
	if err != nil {
		return 0, err
	}
	return profile.PublicRepos, nil
}

func (c *Client) getJSON(ctx context.Context, path, username string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "gitproof/1.0")
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, username)
	}
	if resp.StatusCode == http.StatusForbidden {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return domain.ErrRateLimited
		}
		return fmt.Errorf("%w: status 403: forbidden, check API token permissions", domain.ErrUpstreamAPI)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamAPI, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return nil
}
