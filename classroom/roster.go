package classroom

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxRosterBody bounds how much of a roster response is read.
const maxRosterBody = 4 << 20

// FetchRoster reads the administrative roster for a class from
// GET /api/class/{id}, authenticated with the teacher API key header.
// The response is returned as raw JSON for the operator to inspect.
func FetchRoster(ctx context.Context, client *http.Client, baseURL string, classID int, apiKey string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/class/%d", baseURL, classID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build roster request: %w", err)
	}
	req.Header.Set("API", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRosterBody))
	if err != nil {
		return nil, fmt.Errorf("read roster body: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("roster response is not valid JSON")
	}
	return body, nil
}
