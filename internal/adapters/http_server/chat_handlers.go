package httpserver

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"heritage_explorer/internal/adapters/observability"
	"heritage_explorer/internal/app"
	"heritage_explorer/internal/domain"
)

const maxImageBytes = 8 << 20

// conversationView hides the pending image payload from clients.
type conversationView struct {
	ID           string           `json:"id"`
	PlaceID      string           `json:"placeId"`
	PlaceName    string           `json:"placeName"`
	Messages     []domain.Message `json:"messages"`
	PendingImage string           `json:"pendingImage,omitempty"`
}

func toView(c domain.Conversation) conversationView {
	v := conversationView{ID: c.ID, PlaceID: c.PlaceID, PlaceName: c.PlaceName, Messages: c.Messages}
	if c.Image != nil {
		v.PendingImage = c.Image.Name
	}
	return v
}

type replyView struct {
	Conversation conversationView `json:"conversation"`
	Message      domain.Message   `json:"message"`
	Failed       bool             `json:"failed"`
}

func writeReply(w http.ResponseWriter, kind string, rep app.Reply) {
	observability.ObserveAssistant(kind, rep.Failed)
	writeJSON(w, http.StatusOK, replyView{Conversation: toView(rep.Conversation), Message: rep.Message, Failed: rep.Failed})
}

func (h *Handlers) startConversation(w http.ResponseWriter, r *http.Request) {
	c, err := h.Chat.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/conversations/"+c.ID)
	writeJSON(w, http.StatusCreated, toView(c))
}

func (h *Handlers) getConversation(w http.ResponseWriter, r *http.Request) {
	c, err := h.Chat.Get(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(c))
}

func (h *Handlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message string `json:"message"`
	}
	if err := decode(w, r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected {\"message\": string}")
		return
	}
	rep, err := h.Chat.SendMessage(r.Context(), chi.URLParam(r, "cid"), in.Message)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeReply(w, "message", rep)
}

func (h *Handlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "expected multipart form with an \"image\" file up to 8 MiB")
		return
	}
	// r is a copy made by the timeout middleware, so net/http will not clean
	// up spilled parts for us.
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile("image")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "missing \"image\" file")
		return
	}
	defer f.Close()
	if hdr.Size > maxImageBytes {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "image exceeds 8 MiB")
		return
	}

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "could not read image")
		return
	}
	if len(data) > maxImageBytes {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "image exceeds 8 MiB")
		return
	}
	mime := hdr.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}

	c, err := h.Chat.UploadImage(r.Context(), chi.URLParam(r, "cid"), filepath.Base(hdr.Filename), mime, data)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(c))
}

func (h *Handlers) describeImage(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Chat.DescribeImage(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeReply(w, "describe", rep)
}

func (h *Handlers) historicalNarrative(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Chat.HistoricalNarrative(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeReply(w, "historical", rep)
}
