package httpapi

import (
	"net/http"
	"strings"

	enginesync "smilecare-sync/internal/sync"

	"go.uber.org/zap"
)

// ServicesHandler 服务目录接口
// Catalog entries are identified by value: the route parameter is the
// service name itself.
type ServicesHandler struct {
	engine *enginesync.Engine
	logger *zap.Logger
}

func NewServicesHandler(engine *enginesync.Engine, logger *zap.Logger) *ServicesHandler {
	return &ServicesHandler{engine: engine, logger: logger}
}

func (h *ServicesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/booking/api/v1/services":
		switch r.Method {
		case http.MethodGet:
			h.List(w, r)
		case http.MethodPost:
			h.Add(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/booking/api/v1/services/"):
		name := strings.TrimPrefix(r.URL.Path, "/booking/api/v1/services/")
		if name == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPut:
			h.Rename(w, r, name)
		case http.MethodDelete:
			h.Delete(w, r, name)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ServicesHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.engine.Services()))
}

func (h *ServicesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		Name string `json:"name"`
	}
	if err := readBodyJSON(r, 1<<20, &reqBody); err != nil || reqBody.Name == "" {
		writeJSON(w, http.StatusOK, Fail("name is required"))
		return
	}
	h.engine.AddService(r.Context(), reqBody.Name)
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// Rename substitutes the catalog value. Existing bookings keep the old
// name; there is no cascading rename.
func (h *ServicesHandler) Rename(w http.ResponseWriter, r *http.Request, oldName string) {
	var reqBody struct {
		NewName string `json:"newName"`
	}
	if err := readBodyJSON(r, 1<<20, &reqBody); err != nil || reqBody.NewName == "" {
		writeJSON(w, http.StatusOK, Fail("newName is required"))
		return
	}
	h.engine.RenameService(r.Context(), oldName, reqBody.NewName)
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *ServicesHandler) Delete(w http.ResponseWriter, r *http.Request, name string) {
	h.engine.DeleteService(r.Context(), name)
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
