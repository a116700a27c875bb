package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nordkredit/wallboard/pkg/benchmark"
)

// SeedDefaults upserts the default row for every known team so a fresh
// store serves the same data as demo mode. Requires write credentials.
func (c *Client) SeedDefaults(ctx context.Context) error {
	if !c.cfg.WriteConfigured() {
		return ErrWriteNotConfigured
	}

	g, ctx := errgroup.WithContext(ctx)

	for _, row := range benchmark.Defaults() {
		row := row
		g.Go(func() error {
			return c.upsertRow(ctx, row)
		})
	}

	return g.Wait()
}

func (c *Client) upsertRow(
	ctx context.Context, row benchmark.TeamBenchmark,
) error {
	encoded, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encoding seed row: %w", err)
	}

	endpoint := fmt.Sprintf(
		"%s/rest/v1/%s?on_conflict=team",
		strings.TrimSuffix(c.cfg.URL, "/"),
		c.cfg.Table,
	)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, bytes.NewReader(encoded),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	c.authorize(req, c.cfg.WriteKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("seeding row for %q: %w", row.Team, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)

		return &WriteError{
			Team:   row.Team,
			Status: resp.StatusCode,
			Detail: string(body),
		}
	}

	c.log.WithField("team", row.Team).Info("Seeded default row")

	return nil
}
