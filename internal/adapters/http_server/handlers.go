// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"heritage_explorer/internal/app"
	"heritage_explorer/internal/domain"
)

type Handlers struct {
	Q    *app.QueryService
	Chat *app.ChatService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/places", h.listPlaces)
		r.Get("/places/{id}", h.getPlace)
		r.Get("/places/{id}/booking", h.booking)
		r.Get("/places/{id}/viewer", h.viewer)
		r.Get("/places/{id}/historical", h.historicalView)
		r.Get("/places/{id}/voice", h.voice)
		r.Post("/places/{id}/voice/ask", h.voiceAsk)
		r.Post("/places/{id}/voice/listen", h.voiceListen)

		r.Get("/search", h.search)
		r.Post("/search/keys", h.searchKeys)
		r.Post("/search/select", h.searchSelect)

		r.Post("/places/{id}/conversations", h.startConversation)
		r.Get("/conversations/{cid}", h.getConversation)
		r.Post("/conversations/{cid}/messages", h.sendMessage)
		r.Post("/conversations/{cid}/images", h.uploadImage)
		r.Post("/conversations/{cid}/describe", h.describeImage)
		r.Post("/conversations/{cid}/historical", h.historicalNarrative)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeErr maps domain errors to problem responses.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		title := "Not Found"
		if chi.URLParam(r, "cid") != "" {
			writeProblem(w, http.StatusNotFound, title, "conversation not found")
			return
		}
		writeProblem(w, http.StatusNotFound, title, "Place not found")
	case errors.Is(err, domain.ErrNoBooking):
		writeProblem(w, http.StatusNotFound, "Not Found", "booking is not available for this place")
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrNoImage),
		errors.Is(err, domain.ErrUnsupportedImage),
		errors.Is(err, domain.ErrUnknownPeriod):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable serves v with a weak ETag, answering 304 when the client has it.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	return dec.Decode(dst)
}

// ---- places ----

func (h *Handlers) listPlaces(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Q.ListPlaces(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeCacheable(w, r, map[string]any{"items": app.ToCards(ps)})
}

func (h *Handlers) getPlace(w http.ResponseWriter, r *http.Request) {
	p, err := h.Q.GetPlace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeCacheable(w, r, app.ToDetail(p))
}

func (h *Handlers) booking(w http.ResponseWriter, r *http.Request) {
	u, err := h.Q.Booking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

func (h *Handlers) viewer(w http.ResponseWriter, r *http.Request) {
	v, err := h.Q.Viewer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeCacheable(w, r, v)
}

func (h *Handlers) historicalView(w http.ResponseWriter, r *http.Request) {
	v, err := h.Q.HistoricalView(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("period"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) voice(w http.ResponseWriter, r *http.Request) {
	v, err := h.Q.Voice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) voiceAsk(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Question string `json:"question"`
	}
	if err := decode(w, r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected {\"question\": string}")
		return
	}
	a, err := h.Q.Ask(r.Context(), chi.URLParam(r, "id"), in.Question)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) voiceListen(w http.ResponseWriter, r *http.Request) {
	a, err := h.Q.Listen(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ---- search ----

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	res, err := h.Q.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) searchKeys(w http.ResponseWriter, r *http.Request) {
	var in struct {
		State app.DropdownState `json:"state"`
		Key   string            `json:"key"`
	}
	if err := decode(w, r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected {\"state\": {...}, \"key\": string}")
		return
	}
	res, err := h.Q.Navigate(r.Context(), in.State, in.Key)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) searchSelect(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decode(w, r, &in); err != nil || in.ID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected {\"id\": string}")
		return
	}
	res, err := h.Q.Select(r.Context(), in.ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
