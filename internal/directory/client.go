package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JoeWakeling/newswire/internal/model"
)

// ErrNoAgencies signals that the directory answered but lists nothing.
var ErrNoAgencies = errors.New("no agencies found")

// Lister is the discovery dependency of the aggregation client.
type Lister interface {
	Fetch(ctx context.Context) ([]model.Agency, error)
}

// Client fetches the agency list from a directory service.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch returns the registered agencies in the order the directory lists
// them. Any failure aborts: without a directory there is nothing to
// aggregate.
func (c *Client) Fetch(ctx context.Context) ([]model.Agency, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/directory", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to directory service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("failed to fetch agencies from directory service (code %d): %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var agencies []model.Agency
	if err := json.NewDecoder(resp.Body).Decode(&agencies); err != nil {
		return nil, fmt.Errorf("invalid JSON response from directory service: %w", err)
	}
	if len(agencies) == 0 {
		return nil, ErrNoAgencies
	}
	return agencies, nil
}
