package registry

import (
	"context"
)

// StaticSource lists a fixed set of accounts that share one destination
type StaticSource struct {
	Accounts    []string
	Destination string
}

// NewStaticSource creates a source from an ordered account list
func NewStaticSource(accounts []string, destination string) *StaticSource {
	return &StaticSource{Accounts: accounts, Destination: destination}
}

// ListTargets returns the accounts in their configured order
func (s *StaticSource) ListTargets(ctx context.Context) ([]Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	targets := make([]Target, 0, len(s.Accounts))
	for _, account := range s.Accounts {
		targets = append(targets, NewTarget(account, s.Destination))
	}
	return targets, nil
}
