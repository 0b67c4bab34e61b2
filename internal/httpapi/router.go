package httpapi

import (
	"net/http"

	enginesync "smilecare-sync/internal/sync"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRoutes wires the whole API surface. All booking routes sit
// behind the admin session gate; the auth routes do not.
func (r *Router) RegisterRoutes(engine *enginesync.Engine, sessions *SessionStore) {
	auth := NewAuthHandler(sessions, r.logger)
	r.Handle("/auth/api/v1/login", auth.ServeHTTP)
	r.Handle("/auth/api/v1/logout", auth.ServeHTTP)

	bookings := NewBookingsHandler(engine, r.logger)
	r.Handle("/booking/api/v1/bookings", sessions.RequireSession(bookings.ServeHTTP))
	r.Handle("/booking/api/v1/bookings/", sessions.RequireSession(bookings.ServeHTTP))

	services := NewServicesHandler(engine, r.logger)
	r.Handle("/booking/api/v1/services", sessions.RequireSession(services.ServeHTTP))
	r.Handle("/booking/api/v1/services/", sessions.RequireSession(services.ServeHTTP))

	patients := NewPatientsHandler(engine, r.logger)
	r.Handle("/booking/api/v1/patients", sessions.RequireSession(patients.ServeHTTP))
	r.Handle("/booking/api/v1/patients/", sessions.RequireSession(patients.ServeHTTP))

	records := NewRecordsHandler(engine, r.logger)
	r.Handle("/booking/api/v1/records", sessions.RequireSession(records.ServeHTTP))
	r.Handle("/booking/api/v1/records/", sessions.RequireSession(records.ServeHTTP))

	messages := NewMessagesHandler(engine, r.logger)
	r.Handle("/booking/api/v1/messages", sessions.RequireSession(messages.ServeHTTP))

	// liveness, unauthenticated
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
}
