package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository is the base embedded by all repositories. It resolves the
// gorm handle from the context so that repositories participate in a
// caller-opened transaction transparently.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a base repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// txKey marks a transaction stored in a context.
type txKey struct{}

// DB returns the transaction bound to ctx, or the root connection.
func (r *Repository) DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Transaction runs fn inside a single database transaction. All repository
// calls made with the derived context share that transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey{}, tx)
		return fn(txCtx)
	})
}

// Pagination carries page parameters and receives the total row count.
type Pagination struct {
	Page     int
	PageSize int
	Total    int64
}

// Offset computes the row offset for the current page.
func (p *Pagination) Offset() int {
	if p.Page <= 0 {
		p.Page = 1
	}
	return (p.Page - 1) * p.PageSize
}

// Limit returns the clamped page size.
func (p *Pagination) Limit() int {
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p.PageSize
}
