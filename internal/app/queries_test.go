package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"heritage_explorer/internal/app"
	"heritage_explorer/internal/catalog"
	"heritage_explorer/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	places []domain.Place
	gets   int
	lists  int
}

func (f *fakeRepo) UpsertPlace(ctx context.Context, p domain.Place) error {
	for i := range f.places {
		if f.places[i].ID == p.ID {
			f.places[i] = p
			return nil
		}
	}
	f.places = append(f.places, p)
	return nil
}
func (f *fakeRepo) GetPlace(ctx context.Context, id string) (domain.Place, error) {
	f.gets++
	for _, p := range f.places {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Place{}, domain.ErrNotFound
}
func (f *fakeRepo) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	f.lists++
	return f.places, nil
}

// fakeCache stores JSON like the redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func newQueries() (*app.QueryService, *fakeRepo, *fakeCache) {
	repo := &fakeRepo{places: catalog.Places()}
	cache := &fakeCache{}
	return app.NewQueryService(repo, cache, 10*time.Minute), repo, cache
}

// ---- tests ----

func TestGetPlace_CacheMissThenHit(t *testing.T) {
	q, repo, _ := newQueries()

	p, err := q.GetPlace(context.Background(), "red-fort")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p.Name != "Red Fort" {
		t.Fatalf("unexpected place: %+v", p)
	}

	// Mutate repo to ensure second read indeed comes from cache
	repo.places[3].Name = "SHOULD NOT SEE THIS"

	p2, err := q.GetPlace(context.Background(), "red-fort")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p2.Name != "Red Fort" || repo.gets != 1 {
		t.Fatalf("expected cached place, got %q after %d repo reads", p2.Name, repo.gets)
	}
}

func TestGetPlace_Unknown(t *testing.T) {
	q, _, _ := newQueries()
	if _, err := q.GetPlace(context.Background(), "el-dorado"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPlaces_Cache(t *testing.T) {
	q, repo, _ := newQueries()
	for i := 0; i < 3; i++ {
		ps, err := q.ListPlaces(context.Background())
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if len(ps) != 6 {
			t.Fatalf("expected 6 places, got %d", len(ps))
		}
	}
	if repo.lists != 1 {
		t.Fatalf("expected 1 repo list, got %d", repo.lists)
	}
}

func TestBooking(t *testing.T) {
	q, _, _ := newQueries()
	u, err := q.Booking(context.Background(), "taj-mahal")
	if err != nil || u != "https://www.irctc.co.in" {
		t.Fatalf("booking: %q %v", u, err)
	}
	if _, err := q.Booking(context.Background(), "hampi"); !errors.Is(err, domain.ErrNoBooking) {
		t.Fatalf("expected ErrNoBooking, got %v", err)
	}
}

func TestViewer_Framing(t *testing.T) {
	q, _, _ := newQueries()

	taj, err := q.Viewer(context.Background(), "taj-mahal")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if taj.ModelURL != "/models/taj-mahal.gltf" || taj.Camera != [3]float64{0, 0, 20} || taj.Scale != 0.02 {
		t.Fatalf("unexpected taj viewer: %+v", taj)
	}

	hampi, _ := q.Viewer(context.Background(), "hampi")
	if hampi.Camera != [3]float64{0, 0, 3} || hampi.Scale != 0.2 || hampi.FOV != 75 {
		t.Fatalf("unexpected hampi viewer: %+v", hampi)
	}
	if !strings.Contains(hampi.Fallback, "WebGL") {
		t.Fatalf("missing fallback text")
	}
}

func TestHistoricalView_Periods(t *testing.T) {
	q, _, _ := newQueries()

	hv, err := q.HistoricalView(context.Background(), "qutub-minar", "")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if hv.Period.Value != app.DefaultPeriod || hv.Caption != "Qutub Minar - 100 Years Ago" {
		t.Fatalf("unexpected default view: %+v", hv)
	}

	hv, _ = q.HistoricalView(context.Background(), "qutub-minar", "original")
	if hv.Period.Year != "As Built" || !strings.Contains(hv.Description, "As Built period") {
		t.Fatalf("unexpected original view: %+v", hv)
	}

	if _, err := q.HistoricalView(context.Background(), "qutub-minar", "1000-years"); !errors.Is(err, domain.ErrUnknownPeriod) {
		t.Fatalf("expected ErrUnknownPeriod, got %v", err)
	}
}

func TestVoice_AskAndListen(t *testing.T) {
	q, _, _ := newQueries()

	a, err := q.Ask(context.Background(), "ajanta-caves", "Who built this monument?")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := "The Ajanta Caves showcases magnificent basalt rock architecture. Built in 2nd Century BCE by Buddhist Monks"
	if !strings.HasPrefix(a.Response, want) || !a.Speak {
		t.Fatalf("unexpected answer: %+v", a)
	}

	l, _ := q.Listen(context.Background(), "ajanta-caves")
	if l.Transcript != "Tell me about the architecture of this monument" || l.Response != a.Response {
		t.Fatalf("unexpected listen: %+v", l)
	}

	st, _ := q.Voice(context.Background(), "ajanta-caves")
	if len(st.SampleQuestions) != 4 {
		t.Fatalf("expected 4 sample questions, got %d", len(st.SampleQuestions))
	}
}

func TestSeedPlace_UpsertsAndEvicts(t *testing.T) {
	q, repo, cache := newQueries()
	seed := app.NewSeedService(repo, cache)

	// warm cache
	if _, err := q.GetPlace(context.Background(), "hampi"); err != nil {
		t.Fatalf("err: %v", err)
	}

	p := catalog.Places()[2]
	p.YearBuilt = "1336 CE"
	if err := seed.SeedPlace(context.Background(), p); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, _ := q.GetPlace(context.Background(), "hampi")
	if got.YearBuilt != "1336 CE" {
		t.Fatalf("expected fresh read after eviction, got %q", got.YearBuilt)
	}

	bad := domain.Place{ID: "x", HasBooking: true}
	if err := seed.SeedPlace(context.Background(), bad); err == nil {
		t.Fatalf("expected error for bookable place without url")
	}
}
