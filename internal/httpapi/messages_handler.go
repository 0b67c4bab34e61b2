package httpapi

import (
	"net/http"

	"smilecare-sync/internal/domain"
	enginesync "smilecare-sync/internal/sync"

	"go.uber.org/zap"
)

// MessagesHandler 留言接口
// Messages live in the local snapshot cache only; they never reach the
// remote store.
type MessagesHandler struct {
	engine *enginesync.Engine
	logger *zap.Logger
}

func NewMessagesHandler(engine *enginesync.Engine, logger *zap.Logger) *MessagesHandler {
	return &MessagesHandler{engine: engine, logger: logger}
}

func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/booking/api/v1/messages" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.List(w, r)
	case http.MethodPost:
		h.Add(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.engine.Messages()))
}

func (h *MessagesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var m domain.Message
	if err := readBodyJSON(r, 1<<20, &m); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	if m.Text == "" {
		writeJSON(w, http.StatusOK, Fail("text is required"))
		return
	}
	added := h.engine.AddMessage(r.Context(), m)
	writeJSON(w, http.StatusOK, Ok(added))
}
