package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"smilecare-sync/internal/domain"
	enginesync "smilecare-sync/internal/sync"

	"go.uber.org/zap"
)

// RecordsHandler 诊疗记录接口
type RecordsHandler struct {
	engine *enginesync.Engine
	logger *zap.Logger
}

func NewRecordsHandler(engine *enginesync.Engine, logger *zap.Logger) *RecordsHandler {
	return &RecordsHandler{engine: engine, logger: logger}
}

func (h *RecordsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/booking/api/v1/records":
		switch r.Method {
		case http.MethodGet:
			h.List(w, r)
		case http.MethodPost:
			h.Add(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/booking/api/v1/records/"):
		raw := strings.TrimPrefix(r.URL.Path, "/booking/api/v1/records/")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Delete(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.engine.Records()))
}

func (h *RecordsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var rec domain.ClinicalRecord
	if err := readBodyJSON(r, 1<<20, &rec); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	if rec.PatientID == 0 || rec.Diagnosis == "" {
		writeJSON(w, http.StatusOK, Fail("patientId and diagnosis are required"))
		return
	}
	added := h.engine.AddRecord(r.Context(), rec)
	writeJSON(w, http.StatusOK, Ok(added))
}

func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request, id int64) {
	h.engine.DeleteRecord(r.Context(), id)
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
