package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	if id == uuid.Nil {
		return Product{}, errors.New("invalid product ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, product Product) error {
	if id == uuid.Nil {
		return errors.New("invalid product ID")
	}
	if err := s.validate(product); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, product)
}

func (s *Service) validate(product Product) error {
	if product.Name == "" {
		return errors.New("product name is required")
	}
	if product.Price < 0 {
		return errors.New("product price cannot be negative")
	}
	seen := make(map[string]bool, len(product.Units))
	for _, u := range product.Units {
		if u.Label == "" {
			return errors.New("unit label is required")
		}
		if seen[u.Label] {
			return errors.New("duplicate unit label: " + u.Label)
		}
		seen[u.Label] = true
	}
	return nil
}
