package api

import (
	"context"
	"fmt"
	"net/http"
)

// QuotaUnavailable is shown in place of the quota when it cannot be loaded.
const QuotaUnavailable = "Unable to load quota"

// Quota is the user's monthly import allowance.
type Quota struct {
	Remaining int `json:"remaining"`
	Total     int `json:"total"`
}

func (q Quota) String() string {
	return fmt.Sprintf("%d of %d imports remaining this month", q.Remaining, q.Total)
}

// FetchQuota returns the import quota of the token's owner.
func (c *Client) FetchQuota(ctx context.Context, token string) (Quota, error) {
	if token == "" {
		return Quota{}, Validationf("Please log in first")
	}
	var q Quota
	if err := c.do(ctx, "quota", http.MethodGet, "/api/import-quota", token, nil, &q); err != nil {
		return Quota{}, err
	}
	return q, nil
}

// QuotaLine returns the quota as display text. The quota is informational,
// so every failure becomes QuotaUnavailable.
func (c *Client) QuotaLine(ctx context.Context, token string) string {
	q, err := c.FetchQuota(ctx, token)
	if err != nil {
		c.log.Debug("quota unavailable", c.log.Args("error", err))
		return QuotaUnavailable
	}
	return q.String()
}
