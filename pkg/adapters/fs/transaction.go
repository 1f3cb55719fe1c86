package fs

import (
	"context"

	"github.com/aretw0/notepad/pkg/core"
)

// Transaction implements core.Transaction for the filesystem.
// Operations are staged in memory and written in a single commit.
type Transaction struct {
	core.Staging
	repo *Repository
}

// NewTransaction creates a new transaction.
func NewTransaction(repo *Repository) *Transaction {
	return &Transaction{repo: repo}
}

// Commit applies all staged changes.
func (t *Transaction) Commit(ctx context.Context) (core.Collection, error) {
	ops, err := t.Drain()
	if err != nil {
		return core.Collection{}, err
	}
	return t.repo.commit(ctx, ops)
}
