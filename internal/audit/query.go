package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/database/models"
)

type QueryFilters struct {
	UserID *uuid.UUID
	Action string
}

type Page struct {
	Entries    []models.AuditLog
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

const DefaultPerPage = 15

// Query returns one page of entries, most recent first. Filters are
// conjunctive; an out-of-range page yields an empty page, not an error.
func (s *Service) Query(ctx context.Context, filters QueryFilters, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filters.UserID != nil {
		q = q.Where("user_id = ?", *filters.UserID)
	}
	if filters.Action != "" {
		q = q.Where("action = ?", filters.Action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var entries []models.AuditLog
	err := q.Order("timestamp DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))

	return &Page{
		Entries:    entries,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// QueryAll returns the full filtered result set for export, most recent
// first.
func (s *Service) QueryAll(ctx context.Context, filters QueryFilters) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filters.UserID != nil {
		q = q.Where("user_id = ?", *filters.UserID)
	}
	if filters.Action != "" {
		q = q.Where("action = ?", filters.Action)
	}

	var entries []models.AuditLog
	if err := q.Order("timestamp DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
