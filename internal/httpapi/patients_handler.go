package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"smilecare-sync/internal/domain"
	enginesync "smilecare-sync/internal/sync"

	"go.uber.org/zap"
)

// PatientsHandler 患者档案接口
type PatientsHandler struct {
	engine *enginesync.Engine
	logger *zap.Logger
}

func NewPatientsHandler(engine *enginesync.Engine, logger *zap.Logger) *PatientsHandler {
	return &PatientsHandler{engine: engine, logger: logger}
}

func (h *PatientsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/booking/api/v1/patients":
		switch r.Method {
		case http.MethodGet:
			h.List(w, r)
		case http.MethodPost:
			h.Add(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case r.URL.Path == "/booking/api/v1/patients/summaries":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Summaries(w, r)
	case strings.HasPrefix(r.URL.Path, "/booking/api/v1/patients/"):
		raw := strings.TrimPrefix(r.URL.Path, "/booking/api/v1/patients/")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPatch, http.MethodPut:
			h.Update(w, r, id)
		case http.MethodDelete:
			h.Delete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *PatientsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.engine.Patients()))
}

// Summaries returns the dashboard roll-up derived from the booking ledger.
func (h *PatientsHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	got := h.engine.PatientSummaries()
	if got == nil {
		got = []domain.PatientSummary{}
	}
	writeJSON(w, http.StatusOK, Ok(got))
}

func (h *PatientsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var p domain.Patient
	if err := readBodyJSON(r, 1<<20, &p); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	if p.FullName == "" {
		writeJSON(w, http.StatusOK, Fail("fullName is required"))
		return
	}
	added := h.engine.AddPatient(r.Context(), p)
	writeJSON(w, http.StatusOK, Ok(added))
}

func (h *PatientsHandler) Update(w http.ResponseWriter, r *http.Request, id int64) {
	var patch domain.PatientPatch
	if err := readBodyJSON(r, 1<<20, &patch); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	h.engine.UpdatePatient(r.Context(), id, patch)
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *PatientsHandler) Delete(w http.ResponseWriter, r *http.Request, id int64) {
	h.engine.DeletePatient(r.Context(), id)
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
