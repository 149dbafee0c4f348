package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

// persistenceError passes application errors through and hides everything else
func persistenceError(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewPersistenceError(err)
}

// billWriteError turns the repository's domain errors into client facing ones.
// titles names the books involved so a stock conflict can say which.
func billWriteError(err error, titles map[uuid.UUID]string) error {
	var stockErr *repository.InsufficientStockError
	if errors.As(err, &stockErr) {
		names := make([]string, 0, len(stockErr.BookIDs))
		for _, id := range stockErr.BookIDs {
			if title, ok := titles[id]; ok {
				names = append(names, title)
			} else {
				names = append(names, id.String())
			}
		}
		return apperror.NewConflictError("Insufficient stock for: " + strings.Join(names, ", "))
	}
	var staleErr *repository.StaleStatusError
	if errors.As(err, &staleErr) {
		return apperror.NewConflictError("Bill " + staleErr.BillID.String() + " was changed by someone else, reload and retry")
	}
	return persistenceError(err)
}

func itemTitles(items []entity.BillItem) map[uuid.UUID]string {
	titles := make(map[uuid.UUID]string, len(items))
	for _, item := range items {
		titles[item.BookID] = item.Title
	}
	return titles
}
