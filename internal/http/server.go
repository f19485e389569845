package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timeClock/internal/apperr"
	"timeClock/internal/attendance"
	"timeClock/internal/auth"
	"timeClock/models"
)

// SessionCookie carries the session token between browser and server.
const SessionCookie = "session_id"

type Server struct {
	guard        *auth.Guard
	sessions     *auth.Sessions
	attendance   *attendance.Service
	secureCookie bool
}

func NewServer(guard *auth.Guard, sessions *auth.Sessions, svc *attendance.Service, secureCookie bool) *Server {
	return &Server{guard: guard, sessions: sessions, attendance: svc, secureCookie: secureCookie}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "alive"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/api/me", s.handleMe)
		r.Route("/api/attendance", func(r chi.Router) {
			r.Post("/checkin", s.handleCheckIn)
			r.Post("/checkout", s.handleCheckOut)
			r.Get("/today", s.handleToday)
			r.Get("/month", s.handleMonth)
			r.Post("/manual", s.handleManualPunch)
			r.Post("/period-name", s.handleRenamePeriod)
		})
	})

	return r
}

// Auth

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, err := s.guard.Resolve(r.Context(), sessionToken(r))
		if err != nil {
			writeAppError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithAuthContext(r.Context(), ac)))
	})
}

// requireAuth returns the caller resolved by authMiddleware. A route wired
// without the middleware answers 500 instead of running unauthenticated.
func requireAuth(w http.ResponseWriter, r *http.Request) (auth.AuthContext, bool) {
	ac, ok := auth.AuthFromContext(r.Context())
	if !ok {
		writeAppError(w, fmt.Errorf("%w: auth context missing on %s", apperr.ErrStoreFailure, r.URL.Path))
		return auth.AuthContext{}, false
	}
	return ac, true
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	sess, u, err := s.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": userResponse{ID: u.ID, Username: u.Username, Role: string(u.Role)},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context(), sessionToken(r)); err != nil {
		writeAppError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ac, ok := requireAuth(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": userResponse{ID: ac.UserID, Username: ac.Username, Role: string(ac.Role)},
	})
}

// Attendance

type punchRequest struct {
	Period string `json:"period"`
}

type punchResponse struct {
	Message  string `json:"message"`
	WorkDate string `json:"work_date"`
	Period   string `json:"period"`
	Time     string `json:"time"`
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	s.handlePunch(w, r, false)
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	s.handlePunch(w, r, true)
}

func (s *Server) handlePunch(w http.ResponseWriter, r *http.Request, checkOut bool) {
	ac, ok := requireAuth(w, r)
	if !ok {
		return
	}
	var req punchRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	punch := s.attendance.CheckIn
	if checkOut {
		punch = s.attendance.CheckOut
	}
	res, err := punch(r.Context(), ac, req.Period)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, punchResponse{
		Message:  res.Message(checkOut),
		WorkDate: res.WorkDate,
		Period:   res.Period,
		Time:     res.At.Format(models.TimestampLayout),
	})
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	ac, ok := requireAuth(w, r)
	if !ok {
		return
	}
	sheet, err := s.attendance.Today(r.Context(), ac)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet.Periods)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	ac, ok := requireAuth(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	target := ac.UserID
	if raw := strings.TrimSpace(q.Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeAppError(w, apperr.Invalid("user_id must be an integer"))
			return
		}
		target = id
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeAppError(w, apperr.Invalid("year must be an integer"))
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		writeAppError(w, apperr.Invalid("month must be an integer"))
		return
	}
	sheet, err := s.attendance.Month(r.Context(), ac, target, year, month)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": sheet.Days})
}

type manualPunchRequest struct {
	EmployeeID int64                             `json:"employee_id"`
	Date       string                            `json:"date"`
	Periods    map[string]attendance.PunchTimes `json:"periods"`
}

func (s *Server) handleManualPunch(w http.ResponseWriter, r *http.Request) {
	ac, ok := requireAuth(w, r)
	if !ok {
		return
	}
	var req manualPunchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	res, err := s.attendance.ManualPunch(r.Context(), ac, req.EmployeeID, req.Date, req.Periods)
	if err != nil {
		if len(res.Applied) > 0 {
			// partial success: tell the caller which periods landed
			log.Printf("manual punch for employee %d on %s stopped after %v: %v", req.EmployeeID, req.Date, res.Applied, err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "store_failure", "applied": res.Applied})
			return
		}
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "manual punch saved", "applied": res.Applied})
}

type renamePeriodRequest struct {
	OldPeriod string `json:"oldPeriod"`
	NewPeriod string `json:"newPeriod"`
}

func (s *Server) handleRenamePeriod(w http.ResponseWriter, r *http.Request) {
	ac, ok := requireAuth(w, r)
	if !ok {
		return
	}
	var req renamePeriodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	n, err := s.attendance.RenamePeriod(r.Context(), ac, req.OldPeriod, req.NewPeriod)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("renamed period on %d records", n),
		"changes": n,
	})
}

// Helpers

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return apperr.Invalid("malformed request body")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON that also accepts an empty body.
// Unknown fields are ignored; a client-sent user_id never selects the user.
func decodeOptionalJSON(r *http.Request, out interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Invalid("malformed request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	body := map[string]string{"error": code}
	if detail != "" {
		body["detail"] = detail
	}
	writeJSON(w, status, body)
}

// writeAppError maps the error taxonomy onto HTTP status codes.
func writeAppError(w http.ResponseWriter, err error) {
	switch apperr.Kind(err) {
	case apperr.ErrUnauthenticated:
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
	case apperr.ErrSessionExpired:
		writeError(w, http.StatusUnauthorized, "session_expired", "")
	case apperr.ErrForbidden:
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case apperr.ErrInvalidInput:
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case apperr.ErrNotFound:
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		log.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "store_failure", "")
	}
}
