package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"heritage_explorer/internal/domain"
)

const placesListKey = "places:all"

func placeKey(id string) string { return fmt.Sprintf("place:%s", id) }

type QueryService struct {
	repo     domain.PlaceRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.PlaceRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetPlace(ctx context.Context, id string) (domain.Place, error) {
	key := placeKey(id)
	var p domain.Place
	if ok, _ := s.cache.Get(ctx, key, &p); ok {
		return p, nil
	}
	p, err := s.repo.GetPlace(ctx, id)
	if err != nil {
		return domain.Place{}, err
	}
	_ = s.cache.Set(ctx, key, p, int(s.cacheTTL.Seconds()))
	return p, nil
}

func (s *QueryService) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	var out []domain.Place
	if ok, _ := s.cache.Get(ctx, placesListKey, &out); ok {
		return out, nil
	}
	ps, err := s.repo.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	// copy to avoid aliasing the repo's backing array
	out = make([]domain.Place, len(ps))
	copy(out, ps)
	_ = s.cache.Set(ctx, placesListKey, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// Booking returns the external booking URL of a place.
func (s *QueryService) Booking(ctx context.Context, id string) (string, error) {
	p, err := s.GetPlace(ctx, id)
	if err != nil {
		return "", err
	}
	if !p.HasBooking || p.BookingURL == nil || *p.BookingURL == "" {
		return "", domain.ErrNoBooking
	}
	return *p.BookingURL, nil
}

const viewerFallback = "3D model temporarily unavailable due to WebGL compatibility issues. Please try enabling hardware acceleration or using a different browser."

type Viewer struct {
	PlaceName string     `json:"placeName"`
	ModelURL  string     `json:"modelUrl"`
	Camera    [3]float64 `json:"camera"`
	FOV       float64    `json:"fov"`
	Scale     float64    `json:"scale"`
	Fallback  string     `json:"fallback"`
}

// Viewer describes how the client should frame the place's 3D model.
func (s *QueryService) Viewer(ctx context.Context, id string) (Viewer, error) {
	p, err := s.GetPlace(ctx, id)
	if err != nil {
		return Viewer{}, err
	}
	return viewerFor(p), nil
}

func viewerFor(p domain.Place) Viewer {
	v := Viewer{
		PlaceName: p.Name,
		ModelURL:  p.ModelPath + ".gltf",
		Camera:    [3]float64{0, 0, 3},
		FOV:       75,
		Scale:     0.2,
		Fallback:  viewerFallback,
	}
	name := p.ModelPath
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Replace(name, "-", " ", 1)
	// the Taj Mahal asset is exported at a much larger scale
	if strings.Contains(strings.ToLower(name), "taj") {
		v.Camera = [3]float64{0, 0, 20}
		v.Scale = 0.02
	}
	return v
}
