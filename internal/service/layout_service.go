package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"

	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/repository"
)

// LayoutService owns the per-type singleton layout documents.
type LayoutService struct {
	layouts repository.LayoutRepository
	node    *snowflake.Node
}

func NewLayoutService(layouts repository.LayoutRepository, node *snowflake.Node) *LayoutService {
	return &LayoutService{layouts: layouts, node: node}
}

// Create stores the first document of its type. A second create of the same
// type is rejected so each type stays a singleton.
func (s *LayoutService) Create(ctx context.Context, layout domain.Layout) (domain.Layout, error) {
	if _, err := s.layouts.GetByType(ctx, layout.Type); err == nil {
		return domain.Layout{}, fmt.Errorf("%w: layout %s", domain.ErrConflict, layout.Type)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Layout{}, err
	}
	layout.ID = s.node.Generate().Int64()
	return s.layouts.Create(ctx, layout)
}

// Update replaces the body of the existing document of that type.
func (s *LayoutService) Update(ctx context.Context, layout domain.Layout) (domain.Layout, error) {
	return s.layouts.Update(ctx, layout)
}

// Get returns the document for a type.
func (s *LayoutService) Get(ctx context.Context, t domain.LayoutType) (domain.Layout, error) {
	return s.layouts.GetByType(ctx, t)
}
