package httpapi

import (
	"net/http"
	"strings"

	"smilecare-sync/internal/dates"
	"smilecare-sync/internal/domain"
	enginesync "smilecare-sync/internal/sync"

	"go.uber.org/zap"
)

// BookingsHandler 预约接口
type BookingsHandler struct {
	engine *enginesync.Engine
	logger *zap.Logger
}

func NewBookingsHandler(engine *enginesync.Engine, logger *zap.Logger) *BookingsHandler {
	return &BookingsHandler{engine: engine, logger: logger}
}

func (h *BookingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/booking/api/v1/bookings":
		switch r.Method {
		case http.MethodGet:
			h.List(w, r)
		case http.MethodPost:
			h.Add(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case r.URL.Path == "/booking/api/v1/bookings/export":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, r)
	case strings.HasPrefix(r.URL.Path, "/booking/api/v1/bookings/"):
		id := strings.TrimPrefix(r.URL.Path, "/booking/api/v1/bookings/")
		if id == "" || strings.Contains(id, "/") {
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

// List returns the ledger, optionally restricted to a calendar day.
// The date query accepts any format the normalizer understands; an
// unparsable date matches nothing and answers an empty list.
func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, ok := dates.Normalize(raw)
		if !ok {
			writeJSON(w, http.StatusOK, Ok([]domain.Booking{}))
			return
		}
		got := h.engine.BookingsOn(day)
		if got == nil {
			got = []domain.Booking{}
		}
		writeJSON(w, http.StatusOK, Ok(got))
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.engine.Bookings()))
}

func (h *BookingsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var b domain.Booking
	if err := readBodyJSON(r, 1<<20, &b); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	if b.PatientName == "" || b.Date == "" {
		writeJSON(w, http.StatusOK, Fail("name and date are required"))
		return
	}
	added := h.engine.AddBooking(r.Context(), b)
	writeJSON(w, http.StatusOK, Ok(added))
}

func (h *BookingsHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var patch domain.BookingPatch
	if err := readBodyJSON(r, 1<<20, &patch); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	h.engine.UpdateBooking(r.Context(), id, patch)
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *BookingsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	h.engine.DeleteBooking(r.Context(), id)
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// Export streams the booking ledger as an Excel workbook.
func (h *BookingsHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := GenerateBookingLedgerExport(h.engine.Bookings())
	if err != nil {
		h.logger.Error("Booking export failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("export failed"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	_, _ = w.Write(data)
}
