package app

import (
	"context"
	"fmt"
	"strings"

	"heritage_explorer/internal/domain"
)

const emptySearchHint = `Try searching for "Taj Mahal", "Delhi", or "temple"`

// FilterPlaces returns, in catalog order, the places whose name, location or
// description contains query case-insensitively. A blank query matches nothing.
func FilterPlaces(places []domain.Place, query string) []domain.Place {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	q := strings.ToLower(query)
	var out []domain.Place
	for _, p := range places {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Location), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}

type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match,omitempty"`
}

// Highlight splits text into segments, flagging the ones equal to query
// (case-insensitive, literal match).
func Highlight(text, query string) []Segment {
	if strings.TrimSpace(query) == "" || text == "" {
		return []Segment{{Text: text}}
	}
	lt, lq := strings.ToLower(text), strings.ToLower(query)
	// lowering can change byte lengths for some runes; fall back to no highlight
	if len(lt) != len(text) || len(lq) != len(query) {
		return []Segment{{Text: text}}
	}
	var out []Segment
	pos := 0
	for {
		i := strings.Index(lt[pos:], lq)
		if i < 0 {
			break
		}
		start := pos + i
		if start > pos {
			out = append(out, Segment{Text: text[pos:start]})
		}
		out = append(out, Segment{Text: text[start : start+len(query)], Match: true})
		pos = start + len(query)
	}
	if pos < len(text) {
		out = append(out, Segment{Text: text[pos:]})
	}
	return out
}

type SearchHit struct {
	ID          string    `json:"id"`
	Image       string    `json:"image"`
	YearBuilt   string    `json:"yearBuilt"`
	Bookable    bool      `json:"bookable"`
	Route       string    `json:"route"`
	Name        []Segment `json:"name"`
	Location    []Segment `json:"location"`
	Description []Segment `json:"description"`
}

type SearchResult struct {
	Query string      `json:"query"`
	Open  bool        `json:"open"`
	Label string      `json:"label,omitempty"`
	Hint  string      `json:"hint,omitempty"`
	Hits  []SearchHit `json:"hits"`
}

func foundLabel(n int) string {
	if n == 1 {
		return "1 place found"
	}
	return fmt.Sprintf("%d places found", n)
}

func toSearchResult(query string, matched []domain.Place) SearchResult {
	res := SearchResult{Query: query, Open: strings.TrimSpace(query) != "", Hits: []SearchHit{}}
	if !res.Open {
		return res
	}
	for _, p := range matched {
		res.Hits = append(res.Hits, SearchHit{
			ID:          p.ID,
			Image:       p.Image,
			YearBuilt:   p.YearBuilt,
			Bookable:    p.HasBooking,
			Route:       domain.DetailRoute(p.ID),
			Name:        Highlight(p.Name, query),
			Location:    Highlight(p.Location, query),
			Description: Highlight(p.Description, query),
		})
	}
	if len(matched) > 0 {
		res.Label = foundLabel(len(matched))
	} else {
		res.Hint = emptySearchHint
	}
	return res
}

// Search filters the catalog served by the query service.
func (s *QueryService) Search(ctx context.Context, query string) (SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return toSearchResult(query, nil), nil
	}
	all, err := s.ListPlaces(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	return toSearchResult(query, FilterPlaces(all, query)), nil
}

// ---- dropdown keyboard navigation ----

const (
	KeyInput     = "input"
	KeyArrowDown = "ArrowDown"
	KeyArrowUp   = "ArrowUp"
	KeyEnter     = "Enter"
	KeyEscape    = "Escape"
)

// DropdownState is the client-held state of the search dropdown. The server
// is stateless: every key press sends the state and receives the next one.
type DropdownState struct {
	Query       string `json:"query"`
	Open        bool   `json:"open"`
	Highlighted int    `json:"highlighted"`
}

type DropdownResult struct {
	State      DropdownState `json:"state"`
	Results    SearchResult  `json:"results"`
	NavigateTo string        `json:"navigateTo,omitempty"`
}

// Reduce applies one key to the dropdown state over the given catalog.
func Reduce(places []domain.Place, st DropdownState, key string) DropdownResult {
	matched := FilterPlaces(places, st.Query)
	n := len(matched)

	switch key {
	case "", KeyInput:
		open := strings.TrimSpace(st.Query) != ""
		st = DropdownState{Query: st.Query, Open: open, Highlighted: -1}
		return DropdownResult{State: st, Results: toSearchResult(st.Query, matched)}
	}

	if !st.Open || n == 0 {
		return DropdownResult{State: st, Results: toSearchResult(st.Query, matched)}
	}
	// a stale or foreign index means nothing is highlighted
	if st.Highlighted < -1 || st.Highlighted >= n {
		st.Highlighted = -1
	}

	switch key {
	case KeyArrowDown:
		if st.Highlighted < n-1 {
			st.Highlighted++
		} else {
			st.Highlighted = 0
		}
	case KeyArrowUp:
		if st.Highlighted > 0 {
			st.Highlighted--
		} else {
			st.Highlighted = n - 1
		}
	case KeyEnter:
		if st.Highlighted >= 0 {
			return selectPlace(matched[st.Highlighted].ID)
		}
	case KeyEscape:
		st.Open = false
	}
	return DropdownResult{State: st, Results: toSearchResult(st.Query, matched)}
}

// selectPlace clears the query, closes the dropdown and navigates to the detail page.
func selectPlace(id string) DropdownResult {
	return DropdownResult{
		State:      DropdownState{Highlighted: -1},
		Results:    toSearchResult("", nil),
		NavigateTo: domain.DetailRoute(id),
	}
}

// Navigate handles a keyboard event against the current catalog.
func (s *QueryService) Navigate(ctx context.Context, st DropdownState, key string) (DropdownResult, error) {
	all, err := s.ListPlaces(ctx)
	if err != nil {
		return DropdownResult{}, err
	}
	return Reduce(all, st, key), nil
}

// Select handles a click on a result.
func (s *QueryService) Select(ctx context.Context, id string) (DropdownResult, error) {
	if _, err := s.GetPlace(ctx, id); err != nil {
		return DropdownResult{}, err
	}
	return selectPlace(id), nil
}
