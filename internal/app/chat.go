package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"heritage_explorer/internal/domain"
)

const (
	describePrompt   = "Describe this image in detail, focusing on historical and architectural aspects if applicable."
	noResponse       = "No response available"
	noDescription    = "No description available"
	chatFailureHints = "Please check:\n1. Your API key is correct\n2. Billing is enabled on your Google Cloud project\n3. The Gemini API is enabled"
)

func guidePrompt(place, question string) string {
	return fmt.Sprintf("You are an expert guide for %s. Answer this question: %s", place, question)
}

func historicalPrompt(place string) string {
	return fmt.Sprintf("Describe in detail how %s might have looked 200 years ago, including architectural features, surroundings, and historical context. Provide a vivid description as if painting a picture with words.", place)
}

func conversationKey(id string) string { return "conversation:" + id }

type placeLookup interface {
	GetPlace(ctx context.Context, id string) (domain.Place, error)
}

// Reply is the result of one assistant turn. Failed is set when the
// generator call failed and Message carries the apology instead.
type Reply struct {
	Conversation domain.Conversation `json:"conversation"`
	Message      domain.Message      `json:"message"`
	Failed       bool                `json:"failed"`
}

type ChatService struct {
	places placeLookup
	gen    domain.Generator
	store  domain.Cache
	ttl    time.Duration
	sem    *semaphore.Weighted
	locks  keyedMutex
	now    func() time.Time

	// genTimeout caps one generator call, retries included; 0 means no cap.
	genTimeout time.Duration
}

// NewChatService builds the assistant. concurrency bounds in-flight generator
// calls across all conversations.
func NewChatService(places placeLookup, gen domain.Generator, store domain.Cache, ttl time.Duration, concurrency int) *ChatService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ChatService{
		places: places,
		gen:    gen,
		store:  store,
		ttl:    ttl,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		locks:  keyedMutex{m: map[string]*lockEntry{}},
		now:    time.Now,
	}
}

// WithGenerateTimeout caps each generator call. Keep it below the HTTP
// request timeout so a slow model still produces the apology reply.
func (s *ChatService) WithGenerateTimeout(d time.Duration) *ChatService {
	s.genTimeout = d
	return s
}

func (s *ChatService) Start(ctx context.Context, placeID string) (domain.Conversation, error) {
	p, err := s.places.GetPlace(ctx, placeID)
	if err != nil {
		return domain.Conversation{}, err
	}
	c := domain.Conversation{
		ID:        uuid.NewString(),
		PlaceID:   p.ID,
		PlaceName: p.Name,
		Messages:  []domain.Message{},
	}
	if err := s.save(ctx, c); err != nil {
		return domain.Conversation{}, err
	}
	return c, nil
}

func (s *ChatService) Get(ctx context.Context, id string) (domain.Conversation, error) {
	var c domain.Conversation
	ok, err := s.store.Get(ctx, conversationKey(id), &c)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("load conversation %s: %w", id, err)
	}
	if !ok {
		return domain.Conversation{}, domain.ErrNotFound
	}
	return c, nil
}

// save persists c even when the request context is gone, so a turn that
// reached the generator is never dropped.
func (s *ChatService) save(ctx context.Context, c domain.Conversation) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.store.Set(ctx, conversationKey(c.ID), c, int(s.ttl.Seconds())); err != nil {
		return fmt.Errorf("save conversation %s: %w", c.ID, err)
	}
	return nil
}

// SendMessage asks the guide a free-text question about the conversation's place.
func (s *ChatService) SendMessage(ctx context.Context, id, text string) (Reply, error) {
	if strings.TrimSpace(text) == "" {
		return Reply{}, domain.ErrEmptyMessage
	}
	unlock := s.locks.lock(id)
	defer unlock()

	c, err := s.Get(ctx, id)
	if err != nil {
		return Reply{}, err
	}
	c.Messages = append(c.Messages, s.message(domain.RoleUser, text))

	out, gerr := s.generate(ctx, domain.GenerateRequest{Prompt: guidePrompt(c.PlaceName, text)})
	return s.finish(ctx, c, gerr, spoken(orDefault(out, noResponse)),
		func(err error) string { return fmt.Sprintf("Sorry, I couldn't respond. %s\n\nError: %s", chatFailureHints, err) })
}

// UploadImage records an image to be described by a later DescribeImage call.
func (s *ChatService) UploadImage(ctx context.Context, id, name, mimeType string, data []byte) (domain.Conversation, error) {
	if len(data) == 0 {
		return domain.Conversation{}, domain.ErrNoImage
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.Conversation{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedImage, mimeType)
	}
	unlock := s.locks.lock(id)
	defer unlock()

	c, err := s.Get(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	m := s.message(domain.RoleUser, "Uploaded image: "+name)
	m.Image = name
	c.Messages = append(c.Messages, m)
	c.Image = &domain.PendingImage{Name: name, MIMEType: mimeType, Data: data}
	if err := s.save(ctx, c); err != nil {
		return domain.Conversation{}, err
	}
	return c, nil
}

// DescribeImage sends the last uploaded image to the generator.
func (s *ChatService) DescribeImage(ctx context.Context, id string) (Reply, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	c, err := s.Get(ctx, id)
	if err != nil {
		return Reply{}, err
	}
	if c.Image == nil {
		return Reply{}, domain.ErrNoImage
	}

	out, gerr := s.generate(ctx, domain.GenerateRequest{
		Prompt: describePrompt,
		Image:  &domain.InlineImage{MIMEType: c.Image.MIMEType, Data: c.Image.Data},
	})
	return s.finish(ctx, c, gerr, spoken(orDefault(out, noDescription)),
		func(err error) string { return fmt.Sprintf("Sorry, I couldn't describe the image. Error: %s", err) })
}

// HistoricalNarrative asks how the place looked two centuries ago.
func (s *ChatService) HistoricalNarrative(ctx context.Context, id string) (Reply, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	c, err := s.Get(ctx, id)
	if err != nil {
		return Reply{}, err
	}

	out, gerr := s.generate(ctx, domain.GenerateRequest{Prompt: historicalPrompt(c.PlaceName)})
	return s.finish(ctx, c, gerr,
		func() (string, string) {
			t := orDefault(out, noResponse)
			return fmt.Sprintf("Historical Description of %s 200 years ago:\n\n%s", c.PlaceName, t), t
		},
		func(err error) string {
			return fmt.Sprintf("Sorry, I couldn't generate the historical description. Error: %s", err)
		})
}

func (s *ChatService) generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	if s.genTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.genTimeout)
		defer cancel()
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.sem.Release(1)
	return s.gen.Generate(ctx, req)
}

// finish appends the assistant turn (success or apology) and persists the
// conversation. ok returns the displayed text and the part to vocalize.
func (s *ChatService) finish(ctx context.Context, c domain.Conversation, gerr error, ok func() (string, string), fail func(error) string) (Reply, error) {
	var m domain.Message
	if gerr != nil {
		m = s.message(domain.RoleAssistant, fail(gerr))
	} else {
		text, speech := ok()
		m = s.message(domain.RoleAssistant, text)
		m.Speak = true
		m.Speech = speech
	}
	m.HTML = renderMarkdown(m.Content)
	c.Messages = append(c.Messages, m)
	if err := s.save(ctx, c); err != nil {
		return Reply{}, err
	}
	return Reply{Conversation: c, Message: m, Failed: gerr != nil}, nil
}

func (s *ChatService) message(role domain.Role, content string) domain.Message {
	return domain.Message{Role: role, Content: content, CreatedAt: s.now().UTC()}
}

// spoken displays and vocalizes the same text.
func spoken(text string) func() (string, string) {
	return func() (string, string) { return text, text }
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ---- per-conversation locking ----

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex serializes turns within one conversation; entries are dropped
// once nobody holds or waits for them.
type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*lockEntry
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.m[key]
	if !ok {
		e = &lockEntry{}
		k.m[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}
