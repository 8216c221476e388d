package app

import (
	"context"
	"errors"
	"fmt"

	"heritage_explorer/internal/domain"
)

// SeedService copies catalog entries into a writable repository.
type SeedService struct {
	repo  domain.PlaceRepository
	cache domain.Cache
}

func NewSeedService(r domain.PlaceRepository, cache domain.Cache) *SeedService {
	return &SeedService{repo: r, cache: cache}
}

func (s *SeedService) SeedPlace(ctx context.Context, p domain.Place) error {
	if p.ID == "" {
		return errors.New("seed: place without id")
	}
	if p.HasBooking && (p.BookingURL == nil || *p.BookingURL == "") {
		return fmt.Errorf("seed %s: bookable place without booking url", p.ID)
	}
	if err := s.repo.UpsertPlace(ctx, p); err != nil {
		return fmt.Errorf("upsert place %s: %w", p.ID, err)
	}

	// evict cached views so readers pick up the new row
	if s.cache != nil {
		s.invalidatePlace(ctx, p.ID)
	}
	return nil
}

func (s *SeedService) invalidatePlace(ctx context.Context, id string) {
	_ = s.cache.Del(ctx, placeKey(id))
	_ = s.cache.Del(ctx, placesListKey)
}
