package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// BaseService defines the generic read operations used by the admin listing
// routes. Writes go through the dedicated services.
type BaseService[T any] interface {
	Get(ctx context.Context, id string, includes ...string) (*T, error)
	List(ctx context.Context, q ListQuery) ([]T, int64, error)
}

// ListQuery carries pagination, equality filters, sorting and preloads.
type ListQuery struct {
	Page     int
	Limit    int
	Filters  map[string]interface{}
	Sort     string
	Order    string
	Includes []string
}

// BaseServiceImpl implements BaseService
type BaseServiceImpl[T any] struct {
	db         *gorm.DB
	modelType  T
	filterable map[string]bool
	sortable   map[string]bool
}

// NewBaseService creates a new base service. Only the listed columns may be
// used as filters; sorting is limited to timestamps and name.
func NewBaseService[T any](db *gorm.DB, modelType T, filterable ...string) BaseService[T] {
	s := &BaseServiceImpl[T]{
		db:         db,
		modelType:  modelType,
		filterable: make(map[string]bool, len(filterable)),
		sortable:   map[string]bool{"created_at": true, "updated_at": true, "name": true},
	}
	for _, f := range filterable {
		s.filterable[f] = true
	}
	return s
}

// applyIncludes adds preload statements to the query for each include
func (s *BaseServiceImpl[T]) applyIncludes(query *gorm.DB, includes ...string) *gorm.DB {
	for _, include := range includes {
		query = query.Preload(include)
	}
	return query
}

func (s *BaseServiceImpl[T]) Get(ctx context.Context, id string, includes ...string) (*T, error) {
	var entity T
	query := s.applyIncludes(s.db.WithContext(ctx), includes...)

	// filter deleted entities
	query = query.Where("is_deleted = ?", false)

	if err := query.First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

func (s *BaseServiceImpl[T]) List(ctx context.Context, q ListQuery) ([]T, int64, error) {
	var entities []T
	var total int64

	query := s.db.WithContext(ctx).Model(&s.modelType).Where("is_deleted = ?", false)

	for key, value := range q.Filters {
		if !s.filterable[key] {
			return nil, 0, fmt.Errorf("%w: cannot filter on %q", ErrInvalidInput, key)
		}
		query = query.Where(key+" = ?", value)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if q.Sort != "" {
		if !s.sortable[q.Sort] {
			return nil, 0, fmt.Errorf("%w: cannot sort on %q", ErrInvalidInput, q.Sort)
		}
		order := "asc"
		if strings.EqualFold(q.Order, "desc") {
			order = "desc"
		}
		query = query.Order(q.Sort + " " + order)
	} else {
		query = query.Order("created_at desc")
	}

	if q.Page > 0 && q.Limit > 0 {
		query = query.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
	}

	if err := s.applyIncludes(query, q.Includes...).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return entities, total, nil
}
