package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"heritage_explorer/internal/app"
	"heritage_explorer/internal/domain"
)

type fakeGen struct {
	mu   sync.Mutex
	reqs []domain.GenerateRequest
	out  string
	err  error
}

func (g *fakeGen) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	return g.out, g.err
}

func newChat(gen domain.Generator) *app.ChatService {
	q, _, _ := newQueries()
	return app.NewChatService(q, gen, &fakeCache{}, time.Hour, 2)
}

func TestChat_SendMessage(t *testing.T) {
	gen := &fakeGen{out: "It took 17 years."}
	chat := newChat(gen)
	ctx := context.Background()

	c, err := chat.Start(ctx, "taj-mahal")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	r, err := chat.SendMessage(ctx, c.ID, "How long did it take?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if r.Failed || r.Message.Content != "It took 17 years." || !r.Message.Speak {
		t.Fatalf("unexpected reply: %+v", r)
	}
	if got := gen.reqs[0].Prompt; got != "You are an expert guide for Taj Mahal. Answer this question: How long did it take?" {
		t.Fatalf("prompt: %q", got)
	}

	stored, err := chat.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Messages) != 2 || stored.Messages[0].Role != domain.RoleUser || stored.Messages[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected transcript: %+v", stored.Messages)
	}
}

func TestChat_SendMessage_EmptyAndFallback(t *testing.T) {
	gen := &fakeGen{}
	chat := newChat(gen)
	ctx := context.Background()
	c, _ := chat.Start(ctx, "hampi")

	if _, err := chat.SendMessage(ctx, c.ID, "  "); !errors.Is(err, domain.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	r, _ := chat.SendMessage(ctx, c.ID, "hello")
	if r.Message.Content != "No response available" {
		t.Fatalf("fallback: %q", r.Message.Content)
	}
}

func TestChat_SendMessage_FailureBecomesApology(t *testing.T) {
	gen := &fakeGen{err: errors.New("API request failed: 403 - {}")}
	chat := newChat(gen)
	ctx := context.Background()
	c, _ := chat.Start(ctx, "hampi")

	r, err := chat.SendMessage(ctx, c.ID, "hello")
	if err != nil {
		t.Fatalf("generator failures must not surface: %v", err)
	}
	if !r.Failed || r.Message.Speak {
		t.Fatalf("unexpected reply: %+v", r)
	}
	for _, want := range []string{"Sorry, I couldn't respond.", "Your API key is correct", "Billing is enabled", "Error: API request failed: 403"} {
		if !strings.Contains(r.Message.Content, want) {
			t.Fatalf("apology missing %q: %q", want, r.Message.Content)
		}
	}
}

func TestChat_UnknownConversationAndPlace(t *testing.T) {
	chat := newChat(&fakeGen{})
	if _, err := chat.SendMessage(context.Background(), "missing", "hi"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := chat.Start(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChat_DescribeImage(t *testing.T) {
	gen := &fakeGen{out: "A marble dome."}
	chat := newChat(gen)
	ctx := context.Background()
	c, _ := chat.Start(ctx, "taj-mahal")

	if _, err := chat.DescribeImage(ctx, c.ID); !errors.Is(err, domain.ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if _, err := chat.UploadImage(ctx, c.ID, "notes.txt", "text/plain", []byte("x")); !errors.Is(err, domain.ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}

	up, err := chat.UploadImage(ctx, c.ID, "dome.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if last := up.Messages[len(up.Messages)-1]; last.Content != "Uploaded image: dome.png" || last.Image != "dome.png" {
		t.Fatalf("upload message: %+v", last)
	}

	r, err := chat.DescribeImage(ctx, c.ID)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if r.Message.Content != "A marble dome." {
		t.Fatalf("describe reply: %+v", r.Message)
	}
	req := gen.reqs[0]
	if !strings.HasPrefix(req.Prompt, "Describe this image in detail") || req.Image == nil || req.Image.MIMEType != "image/png" || len(req.Image.Data) != 4 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestChat_DescribeImage_Failure(t *testing.T) {
	gen := &fakeGen{err: errors.New("boom")}
	chat := newChat(gen)
	ctx := context.Background()
	c, _ := chat.Start(ctx, "taj-mahal")
	_, _ = chat.UploadImage(ctx, c.ID, "a.jpg", "image/jpeg", []byte{1})

	r, _ := chat.DescribeImage(ctx, c.ID)
	if r.Message.Content != "Sorry, I couldn't describe the image. Error: boom" {
		t.Fatalf("apology: %q", r.Message.Content)
	}
}

func TestChat_HistoricalNarrative(t *testing.T) {
	gen := &fakeGen{out: "Fields and river banks."}
	chat := newChat(gen)
	ctx := context.Background()
	c, _ := chat.Start(ctx, "red-fort")

	r, err := chat.HistoricalNarrative(ctx, c.ID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if r.Message.Content != "Historical Description of Red Fort 200 years ago:\n\nFields and river banks." {
		t.Fatalf("narrative: %q", r.Message.Content)
	}
	if !r.Message.Speak || r.Message.Speech != "Fields and river banks." {
		t.Fatalf("only the generated text is spoken: %+v", r.Message)
	}
	if !strings.Contains(gen.reqs[0].Prompt, "how Red Fort might have looked 200 years ago") {
		t.Fatalf("prompt: %q", gen.reqs[0].Prompt)
	}

	gen.err = errors.New("quota")
	r, _ = chat.HistoricalNarrative(ctx, c.ID)
	if r.Message.Content != "Sorry, I couldn't generate the historical description. Error: quota" {
		t.Fatalf("apology: %q", r.Message.Content)
	}
	if r.Message.Speak || r.Message.Speech != "" {
		t.Fatalf("apologies are not spoken: %+v", r.Message)
	}
}

func TestChat_OverlappingSendsKeepEveryTurn(t *testing.T) {
	gen := &fakeGen{out: "ok"}
	chat := newChat(gen)
	ctx := context.Background()
	c, _ := chat.Start(ctx, "hampi")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := chat.SendMessage(ctx, c.ID, fmt.Sprintf("q%d", i)); err != nil {
				t.Errorf("send %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := chat.Get(ctx, c.ID)
	if len(got.Messages) != 2*n {
		t.Fatalf("expected %d messages, got %d", 2*n, len(got.Messages))
	}
	// turns are appended pairwise: user then assistant
	for i := 0; i < len(got.Messages); i += 2 {
		if got.Messages[i].Role != domain.RoleUser || got.Messages[i+1].Role != domain.RoleAssistant {
			t.Fatalf("interleaved turn at %d", i)
		}
	}
}

func TestChat_RepliesRenderMarkdown(t *testing.T) {
	gen := &fakeGen{out: "Built of **red sandstone**.\n\n<script>alert(1)</script>"}
	chat := newChat(gen)
	ctx := context.Background()
	c, _ := chat.Start(ctx, "red-fort")

	r, err := chat.SendMessage(ctx, c.ID, "What is it made of?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(r.Message.HTML, "<strong>red sandstone</strong>") {
		t.Fatalf("expected rendered markdown, got %q", r.Message.HTML)
	}
	if strings.Contains(r.Message.HTML, "<script>") {
		t.Fatalf("raw html must not pass through: %q", r.Message.HTML)
	}
	stored, _ := chat.Get(ctx, c.ID)
	if stored.Messages[0].HTML != "" {
		t.Fatalf("user messages are not rendered: %+v", stored.Messages[0])
	}
}

// blockingGen waits until its context ends, like a model that never answers.
type blockingGen struct{}

func (blockingGen) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestChat_SlowGeneratorTimesOutIntoApology(t *testing.T) {
	q, _, _ := newQueries()
	chat := app.NewChatService(q, blockingGen{}, &fakeCache{}, time.Hour, 2).
		WithGenerateTimeout(30 * time.Millisecond)
	ctx := context.Background()
	c, _ := chat.Start(ctx, "hampi")

	start := time.Now()
	r, err := chat.SendMessage(ctx, c.ID, "Still there?")
	if err != nil {
		t.Fatalf("timeout must not surface as an error: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("generator was not bounded: %v", time.Since(start))
	}
	if !r.Failed || !strings.Contains(r.Message.Content, context.DeadlineExceeded.Error()) {
		t.Fatalf("unexpected reply: %+v", r)
	}
	got, _ := chat.Get(ctx, c.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("turn not persisted: %+v", got.Messages)
	}
}

// ctxCache refuses writes on a finished context, as a network store would.
type ctxCache struct{ fakeCache }

func (c *ctxCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.fakeCache.Set(ctx, key, v, ttlSec)
}

// cancellingGen simulates the client going away while the model runs.
type cancellingGen struct{ cancel context.CancelFunc }

func (g cancellingGen) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	g.cancel()
	return "", context.Canceled
}

func TestChat_TurnPersistedAfterRequestCancelled(t *testing.T) {
	q, _, _ := newQueries()
	store := &ctxCache{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	chat := app.NewChatService(q, cancellingGen{cancel: cancel}, store, time.Hour, 2)

	c, err := chat.Start(ctx, "taj-mahal")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	r, err := chat.SendMessage(ctx, c.ID, "Hello?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !r.Failed {
		t.Fatalf("expected apology: %+v", r)
	}
	got, err := chat.Get(context.Background(), c.ID)
	if err != nil || len(got.Messages) != 2 {
		t.Fatalf("turn lost after cancel: err=%v messages=%+v", err, got.Messages)
	}
}
