package domain

import "errors"

type Place struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Location     string  `json:"location"`
	Image        string  `json:"image"`
	Description  string  `json:"description"`
	YearBuilt    string  `json:"yearBuilt"`
	ModelPath    string  `json:"modelPath"` // asset prefix; viewer appends ".gltf"
	HasBooking   bool    `json:"hasBooking"`
	BookingURL   *string `json:"bookingUrl,omitempty"`
	About        string  `json:"about,omitempty"` // detail page lead paragraph
	DetailedInfo string  `json:"detailedInfo,omitempty"`
	Architect    string  `json:"architect,omitempty"`
	Materials    string  `json:"materials,omitempty"`
	Position     int     `json:"position"` // 1-based catalog order
}

var (
	ErrNotFound         = errors.New("not found")
	ErrNoBooking        = errors.New("booking not available")
	ErrUnknownPeriod    = errors.New("unknown historical period")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrNoImage          = errors.New("no image uploaded")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// DetailRoute is the client-side route of a place's detail page.
func DetailRoute(id string) string { return "/model/" + id }

// CatalogRoute is the client-side route of the catalog page.
const CatalogRoute = "/"
