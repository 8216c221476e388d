package app

import "heritage_explorer/internal/domain"

// Card is the catalog grid entry.
type Card struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Image       string `json:"image"`
	Description string `json:"description"`
	YearBuilt   string `json:"yearBuilt"`
	Bookable    bool   `json:"bookable"`
	Route       string `json:"route"`
}

// Detail is the detail page payload.
type Detail struct {
	domain.Place
	Route        string `json:"route"`
	BackRoute    string `json:"backRoute"`
	BookingRoute string `json:"bookingRoute,omitempty"`
	ViewerRoute  string `json:"viewerRoute"`
}

func ToCards(ps []domain.Place) []Card {
	out := make([]Card, 0, len(ps))
	for _, p := range ps {
		out = append(out, Card{
			ID:          p.ID,
			Name:        p.Name,
			Location:    p.Location,
			Image:       p.Image,
			Description: p.Description,
			YearBuilt:   p.YearBuilt,
			Bookable:    p.HasBooking,
			Route:       domain.DetailRoute(p.ID),
		})
	}
	return out
}

func ToDetail(p domain.Place) Detail {
	d := Detail{
		Place:       p,
		Route:       domain.DetailRoute(p.ID),
		BackRoute:   domain.CatalogRoute,
		ViewerRoute: "/v1/places/" + p.ID + "/viewer",
	}
	if p.HasBooking && p.BookingURL != nil {
		d.BookingRoute = "/v1/places/" + p.ID + "/booking"
	}
	return d
}
