package client

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/showrunner/internal/metrics"
)

const operationStatsFields = `count totalTimeMs avgTimeMs minTimeMs maxTimeMs`

// GetServerStats returns in-memory runtime statistics of the server.
func (c *Client) GetServerStats(ctx context.Context) (*metrics.Snapshot, error) {
	query := `
		query GetServerStats {
			serverStats {
				uptimeSeconds
				llmGenerate {
					` + operationStatsFields + `
					totalInputTokens totalOutputTokens
					avgInputTokens avgOutputTokens
					minInputTokens maxInputTokens
					minOutputTokens maxOutputTokens
				}
				dbQuery { ` + operationStatsFields + ` }
				seasonGenerate { ` + operationStatsFields + ` }
				episodesReady
				episodesFailed
				activeGenerations
			}
		}
	`

	var result struct {
		ServerStats metrics.Snapshot `json:"serverStats"`
	}
	if err := c.Execute(ctx, query, nil, &result); err != nil {
		return nil, fmt.Errorf("server stats: %w", err)
	}
	return &result.ServerStats, nil
}
