package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"orbench/internal/model"

	"github.com/shopspring/decimal"
)

// keyEndpoints in probe order; older deployments only serve /auth/key.
var keyEndpoints = []string{"/key", "/auth/key"}

// KeyInfo fetches the key's credit limit and spend and returns a balance
// snapshot. A null limit reads as zero (uncapped key).
func (c *Client) KeyInfo(ctx context.Context) (model.BalanceSnapshot, error) {
	var lastErr error
	for _, path := range keyEndpoints {
		body, err := c.get(ctx, path)
		if err != nil {
			if errors.Is(err, errNotFound) {
				lastErr = err
				continue
			}
			return model.BalanceSnapshot{}, err
		}

		var raw keyResponse
		if err := json.Unmarshal(body, &raw); err != nil {
			return model.BalanceSnapshot{}, fmt.Errorf("%w: parsing key info: %v", ErrMalformedResponse, err)
		}

		limit := decimal.Zero
		if raw.Data.Limit != nil {
			limit = decimalFromNumber(*raw.Data.Limit)
		}
		usage := decimalFromNumber(raw.Data.Usage)

		return model.NewBalanceSnapshot(limit, usage, time.Now()), nil
	}

	if lastErr == nil {
		lastErr = errNotFound
	}
	return model.BalanceSnapshot{}, fmt.Errorf("openrouter: key endpoint unavailable: %w", lastErr)
}

func decimalFromNumber(n json.Number) decimal.Decimal {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
