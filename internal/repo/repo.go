// Package repo holds the gorm repositories. Methods take an optional transaction;
// a nil tx runs against the repository's own handle.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

func pick(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = db
	}
	return tx.WithContext(ctx)
}
