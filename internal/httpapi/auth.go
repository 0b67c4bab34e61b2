package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SessionStore 管理单管理员账号的会话令牌
// Credentials are compared as sha256(account + ":" + password) so the
// plaintext password never crosses the handler boundary twice. Tokens are
// opaque UUIDs held in memory; a restart logs everyone out.
type SessionStore struct {
	credentialHash string

	mu     sync.RWMutex
	tokens map[string]struct{}
}

func NewSessionStore(account, password string) *SessionStore {
	return &SessionStore{
		credentialHash: sha256Hex(strings.ToLower(strings.TrimSpace(account)) + ":" + password),
		tokens:         make(map[string]struct{}),
	}
}

// Login verifies the credentials and mints a bearer token.
func (s *SessionStore) Login(account, password string) (string, bool) {
	if sha256Hex(strings.ToLower(strings.TrimSpace(account))+":"+password) != s.credentialHash {
		return "", false
	}
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
	return token, true
}

func (s *SessionStore) Logout(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

func (s *SessionStore) Valid(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// RequireSession gates admin routes on a valid bearer token.
// Expired/unknown tokens answer code=60401 + HTTP 401 so the front-end
// interceptor redirects to login.
func (s *SessionStore) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.Valid(bearerToken(r)) {
			writeJSON(w, http.StatusUnauthorized, Result[any]{
				Code:    ResultTokenExpired,
				Type:    "error",
				Message: "session expired",
			})
			return
		}
		next(w, r)
	}
}

// AuthHandler 登录登出
type AuthHandler struct {
	sessions *SessionStore
	logger   *zap.Logger
}

func NewAuthHandler(sessions *SessionStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/api/v1/login":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Login(w, r)
	case "/auth/api/v1/logout":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Logout(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		Account  string `json:"account"`
		Password string `json:"password"`
	}
	if err := readBodyJSON(r, 1<<20, &reqBody); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}

	token, ok := h.sessions.Login(reqBody.Account, reqBody.Password)
	if !ok {
		h.logger.Warn("Login rejected", zap.String("account", reqBody.Account))
		writeJSON(w, http.StatusOK, Fail("invalid account or password"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{
		"token":   token,
		"account": reqBody.Account,
	}))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(bearerToken(r))
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
