package pagination

import (
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
)

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 10
	// MaxPageSize caps how many rows any list query can request.
	MaxPageSize = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Offset returns (page-1)*pageSize for positive pages and 0 otherwise.
func (p Params) Offset() int {
	if p.Page > 0 {
		return (p.Page - 1) * p.PageSize
	}
	return 0
}

// Limit returns the page size, falling back to the default for non-positive sizes.
func (p Params) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

// Validate enforces the service-level bounds: page >= 1 and 1 <= pageSize <= MaxPageSize.
func (p Params) Validate() error {
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return pkgerrors.OutOfRange("page_size", 1, MaxPageSize, p.PageSize)
	}
	if p.Page < 1 {
		return pkgerrors.OutOfRange("page", 1, nil, p.Page)
	}
	return nil
}
