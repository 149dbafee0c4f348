package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sangkips/bookshop-pos/pkg/pagination"
)

// Scopes are written against both Postgres and MySQL, so LIKE is used on
// lower-cased columns instead of ILIKE.

// SearchScope matches term against any of columns, case-insensitively
func SearchScope(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		t := strings.TrimSpace(term)
		if t == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + strings.ToLower(t) + "%"
		clauses := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			clauses[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = pattern
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

// ActiveScope hides inactive rows unless includeInactive is set
func ActiveScope(includeInactive bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if includeInactive {
			return db
		}
		return db.Where("is_active = ?", true)
	}
}

// DateRangeScope keeps rows with column in [from, to]
func DateRangeScope(column string, from, to *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where(column+" >= ?", *from)
		}
		if to != nil {
			db = db.Where(column+" <= ?", *to)
		}
		return db
	}
}

// PaginateScope applies offset and limit
func PaginateScope(params *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params == nil {
			params = pagination.DefaultPagination()
		}
		params.Validate()
		return db.Offset(params.Offset()).Limit(params.PerPage)
	}
}

// orderClause builds an ORDER BY from user input, accepting only allowed columns
func orderClause(sortBy, sortOrder string, allowed map[string]bool, fallback string) string {
	column := fallback
	if allowed[sortBy] {
		column = sortBy
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}
