package client

import (
	"context"
	"net/url"

	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

// ListTargets returns every monitored target with its stored state.
func (c *Client) ListTargets(ctx context.Context) ([]domain.TargetStatus, error) {
	var targets []domain.TargetStatus
	if err := c.get(ctx, "/api/v1/targets", &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// GetTarget returns one target with its current slots.
func (c *Client) GetTarget(ctx context.Context, id string) (*domain.TargetStatus, error) {
	var t domain.TargetStatus
	if err := c.get(ctx, "/api/v1/targets/"+url.PathEscape(id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CheckTarget runs one poll cycle for the target now.
func (c *Client) CheckTarget(ctx context.Context, id string) (*domain.CheckResult, error) {
	var res domain.CheckResult
	if err := c.post(ctx, "/api/v1/targets/"+url.PathEscape(id)+"/check", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ResetTarget deletes the target's stored state.
func (c *Client) ResetTarget(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/targets/"+url.PathEscape(id)+"/state", nil)
}
