// Package catalog holds the compiled-in list of heritage sites.
package catalog

import (
	"context"
	"errors"

	"heritage_explorer/internal/domain"
)

var ErrReadOnly = errors.New("catalog: read-only")

func strp(s string) *string { return &s }

var places = []domain.Place{
	{
		ID:           "taj-mahal",
		Name:         "Taj Mahal",
		Location:     "Agra, Uttar Pradesh",
		Image:        "https://images.pexels.com/photos/1583339/pexels-photo-1583339.jpeg",
		Description:  "A UNESCO World Heritage Site, the Taj Mahal is an ivory-white marble mausoleum built by Mughal emperor Shah Jahan in memory of his beloved wife Mumtaz Mahal.",
		YearBuilt:    "1653",
		ModelPath:    "/models/taj-mahal",
		HasBooking:   true,
		BookingURL:   strp("https://www.irctc.co.in"),
		About:        "The Taj Mahal is an ivory-white marble mausoleum on the right bank of the river Yamuna in the Indian city of Agra. It was commissioned in 1632 by the Mughal emperor Shah Jahan to house the tomb of his favourite wife, Mumtaz Mahal.",
		DetailedInfo: "Built over 17 years by 20,000 workers, the Taj Mahal combines elements from Islamic, Persian, Ottoman Turkish and Indian architectural styles. The main dome is 35 meters high and surrounded by four smaller domes.",
		Architect:    "Ustad Ahmad Lahori",
		Materials:    "White marble, Red sandstone, Precious stones",
	},
	{
		ID:           "qutub-minar",
		Name:         "Qutub Minar",
		Location:     "Delhi",
		Image:        "https://images.pexels.com/photos/15104736/pexels-photo-15104736.jpeg",
		Description:  "The tallest brick minaret in the world, Qutub Minar is a 73-meter tall tapering tower with intricate carvings and verses from the Quran.",
		YearBuilt:    "1220",
		ModelPath:    "/models/qutub-minar",
		About:        "The Qutub Minar is a minaret and \"victory tower\" that forms part of the Qutb complex, a UNESCO World Heritage Site in the Mehrauli area of Delhi, India.",
		DetailedInfo: "Standing at 73 meters tall, it is the tallest brick minaret in the world. The tower has five distinct storeys, each marked by a projecting balcony.",
		Architect:    "Qutb-ud-din Aibak",
		Materials:    "Red sandstone, Marble",
	},
	{
		ID:           "hampi",
		Name:         "Hampi",
		Location:     "Karnataka",
		Image:        "https://images.pexels.com/photos/3581364/pexels-photo-3581364.jpeg",
		Description:  "The ruins of the Vijayanagara Empire, Hampi is a UNESCO World Heritage Site known for its stunning architecture and boulder landscapes.",
		YearBuilt:    "1336",
		ModelPath:    "/models/hampi",
		About:        "Hampi was the capital of the Vijayanagara Empire in the 14th century. Chronicles left by Persian and European travelers describe it as a prosperous, well-fortified city.",
		DetailedInfo: "The site comprises more than 1,600 surviving remains of the last great Hindu kingdom in South India that includes forts, riverside features, royal and sacred complexes.",
		Architect:    "Vijayanagara Architects",
		Materials:    "Granite, Local stone",
	},
	{
		ID:           "red-fort",
		Name:         "Red Fort",
		Location:     "Delhi",
		Image:        "https://images.pexels.com/photos/789750/pexels-photo-789750.jpeg",
		Description:  "A historic fortified palace built by Mughal Emperor Shah Jahan, serving as the main residence of the Mughal Emperors for nearly 200 years.",
		YearBuilt:    "1648",
		ModelPath:    "/models/red-fort",
		About:        "The Red Fort is a historic walled city in Delhi, India that was the main residence of the Mughal emperors for nearly 200 years.",
		DetailedInfo: "The fort represents the zenith of Mughal creativity which, under the Shah Jahan, was brought to a new level of refinement.",
		Architect:    "Ustad Ahmad Lahori",
		Materials:    "Red sandstone, Marble",
	},
	{
		ID:           "ajanta-caves",
		Name:         "Ajanta Caves",
		Location:     "Maharashtra",
		Image:        "https://images.pexels.com/photos/11108465/pexels-photo-11108465.jpeg",
		Description:  "Rock-cut Buddhist cave monuments dating from the 2nd century BCE, famous for their ancient paintings and sculptures.",
		YearBuilt:    "2nd Century BCE",
		ModelPath:    "/models/ajanta-caves",
		About:        "The Ajanta Caves are approximately 30 rock-cut Buddhist cave monuments which date from the 2nd century BCE to about 480 CE.",
		DetailedInfo: "The caves include paintings and rock-cut sculptures described as among the finest surviving examples of ancient Indian art.",
		Architect:    "Buddhist Monks",
		Materials:    "Basalt rock",
	},
	{
		ID:           "khajuraho",
		Name:         "Khajuraho Temples",
		Location:     "Madhya Pradesh",
		Image:        "https://images.pexels.com/photos/17120104/pexels-photo-17120104.jpeg",
		Description:  "A group of Hindu and Jain temples famous for their nagara-style architectural symbolism and erotic sculptures.",
		YearBuilt:    "950-1150 CE",
		ModelPath:    "/models/khajuraho",
		About:        "The Khajuraho Group of Monuments is a group of Hindu and Jain temples in Chhatarpur district, Madhya Pradesh, India.",
		DetailedInfo: "Only about 20 temples remain; they fall into three distinct groups and belong to two different religions - Hinduism and Jainism.",
		Architect:    "Chandela Dynasty Architects",
		Materials:    "Sandstone",
	},
}

// Places returns a copy of the catalog in display order.
func Places() []domain.Place {
	out := make([]domain.Place, len(places))
	for i, p := range places {
		out[i] = clone(p)
		out[i].Position = i + 1
	}
	return out
}

func clone(p domain.Place) domain.Place {
	if p.BookingURL != nil {
		u := *p.BookingURL
		p.BookingURL = &u
	}
	return p
}

// Repo serves the static catalog through the PlaceRepository port.
type Repo struct{}

func NewRepo() *Repo { return &Repo{} }

func (Repo) UpsertPlace(ctx context.Context, p domain.Place) error { return ErrReadOnly }

func (Repo) GetPlace(ctx context.Context, id string) (domain.Place, error) {
	for i, p := range places {
		if p.ID == id {
			c := clone(p)
			c.Position = i + 1
			return c, nil
		}
	}
	return domain.Place{}, domain.ErrNotFound
}

func (Repo) ListPlaces(ctx context.Context) ([]domain.Place, error) { return Places(), nil }
