package domain

import "context"

type PlaceRepository interface {
	// Write path
	UpsertPlace(ctx context.Context, p Place) error

	// Read paths
	GetPlace(ctx context.Context, id string) (Place, error)
	ListPlaces(ctx context.Context) ([]Place, error)
}

// Generator performs one call to the generative-language API and returns
// the text of the first candidate ("" when the model returned none).
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type GenerateRequest struct {
	Prompt string
	Image  *InlineImage // optional
}

type InlineImage struct {
	MIMEType string
	Data     []byte // raw bytes; adapters encode as needed
}
