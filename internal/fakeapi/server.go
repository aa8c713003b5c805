// Package fakeapi is an in-memory implementation of the wellness service API, used for
// development and end-to-end tests of the client.
package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"foundry/internal/domain"
)

// CookieName is the name of the session cookie set on login.
const CookieName = "session"

const dateLayout = "2006-01-02"

type contextKey string

const contextKeySession contextKey = "session"

type sessionInfo struct {
	ID     string
	UserID int64
}

type Options struct {
	JWTSecret  string
	SessionTTL time.Duration
	Logger     logrus.FieldLogger
}

type Server struct {
	store  *Store
	secret []byte
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewServer(store *Store, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Server{
		store:  store,
		secret: []byte(opts.JWTSecret),
		ttl:    ttl,
		log:    log.WithField("component", "fakeapi"),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLog, middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/api/auth/login", s.handleLogin)

	r.Group(func(api chi.Router) {
		api.Use(s.requireSession)
		api.Get("/api/auth/user", s.handleUser)
		api.Post("/api/auth/logout", s.handleLogout)

		api.Get("/api/protocols/{date}", s.handleListProtocols)
		api.Post("/api/protocols", s.handleCreateProtocol)
		api.Patch("/api/protocols/{id}", s.handleUpdateProtocol)
		api.Delete("/api/protocols/{id}", s.handleDeleteProtocol)

		api.Get("/api/bookings", s.handleListBookings)
		api.Post("/api/bookings", s.handleCreateBooking)
		api.Patch("/api/bookings/{id}", s.handleUpdateBooking)
		api.Delete("/api/bookings/{id}", s.handleDeleteBooking)

		api.Get("/api/metrics", s.handleMetricsRange)
		api.Get("/api/metrics/recent", s.handleRecentMetrics)
		api.Get("/api/metrics/{date}", s.handleMetricsOn)
		api.Post("/api/metrics", s.handleUpsertMetric)

		api.Get("/api/biomarkers", s.handleListBiomarkers)
		api.Post("/api/biomarkers", s.handleCreateBiomarker)

		api.Get("/api/achievements", s.handleUnlocked)
		api.Get("/api/achievements/progress", s.handleProgress)
		api.Get("/api/achievements/definitions", s.handleDefinitions)
		api.Post("/api/achievements/check", s.handleCheck)

		api.Get("/api/profile", s.handleGetProfile)
		api.Post("/api/profile", s.handleUpsertProfile)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	user := s.store.SignIn(req.Email)
	sid := s.store.OpenSession(user.ID)
	token, expiresAt, err := s.signSession(user.ID, sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	user, err := s.store.User(sess.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.store.CloseSession(sessionFromContext(r.Context()).ID)
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListProtocols(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !validDate(date) {
		writeError(w, http.StatusBadRequest, "Invalid date")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Protocols(userID(r), date))
}

func (s *Server) handleCreateProtocol(w http.ResponseWriter, r *http.Request) {
	var in domain.ProtocolInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Title) == "" || !validDate(in.Date) {
		writeError(w, http.StatusBadRequest, "Title and a valid date are required")
		return
	}
	writeJSON(w, http.StatusCreated, s.store.CreateProtocol(userID(r), in))
}

func (s *Server) handleUpdateProtocol(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var patch domain.ProtocolPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.store.UpdateProtocol(userID(r), id, patch)
	if err != nil {
		writeError(w, http.StatusNotFound, "Protocol not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProtocol(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteProtocol(userID(r), id); err != nil {
		writeError(w, http.StatusNotFound, "Protocol not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Bookings(userID(r)))
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Title) == "" || !validDate(in.Date) {
		writeError(w, http.StatusBadRequest, "Title and a valid date are required")
		return
	}
	switch in.Type {
	case domain.BookingTraining, domain.BookingRecovery, domain.BookingBiomarker, domain.BookingSpecialist:
	default:
		writeError(w, http.StatusBadRequest, "Invalid booking type")
		return
	}
	writeJSON(w, http.StatusCreated, s.store.CreateBooking(userID(r), in))
}

func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Status domain.BookingStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Status {
	case domain.BookingConfirmed, domain.BookingPending, domain.BookingCancelled:
	default:
		writeError(w, http.StatusBadRequest, "Invalid booking status")
		return
	}
	b, err := s.store.SetBookingStatus(userID(r), id, req.Status)
	if err != nil {
		writeError(w, http.StatusNotFound, "Booking not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteBooking(userID(r), id); err != nil {
		writeError(w, http.StatusNotFound, "Booking not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMetricsRange(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("startDate")
	to := r.URL.Query().Get("endDate")
	if !validDate(from) || !validDate(to) {
		writeError(w, http.StatusBadRequest, "startDate and endDate are required")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Metrics(userID(r), from, to))
}

func (s *Server) handleRecentMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.RecentMetrics(userID(r)))
}

func (s *Server) handleMetricsOn(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !validDate(date) {
		writeError(w, http.StatusBadRequest, "Invalid date")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Metrics(userID(r), date, date))
}

func (s *Server) handleUpsertMetric(w http.ResponseWriter, r *http.Request) {
	var in domain.HealthMetricInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch in.Type {
	case domain.MetricSleep, domain.MetricRecovery, domain.MetricRHR, domain.MetricHRV, domain.MetricSteps, domain.MetricCalories:
	default:
		writeError(w, http.StatusBadRequest, "Invalid metric type")
		return
	}
	if !validDate(in.Date) {
		writeError(w, http.StatusBadRequest, "Invalid date")
		return
	}
	writeJSON(w, http.StatusOK, s.store.UpsertMetric(userID(r), in))
}

func (s *Server) handleListBiomarkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Biomarkers(userID(r)))
}

func (s *Server) handleCreateBiomarker(w http.ResponseWriter, r *http.Request) {
	var in domain.BiomarkerInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Name) == "" || !validDate(in.Date) {
		writeError(w, http.StatusBadRequest, "Name and a valid date are required")
		return
	}
	writeJSON(w, http.StatusCreated, s.store.CreateBiomarker(userID(r), in))
}

func (s *Server) handleUnlocked(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Unlocked(userID(r)))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Progress(userID(r)))
}

func (s *Server) handleDefinitions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Definitions())
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	resp := s.store.Check(userID(r))
	if resp.TotalNew > 0 {
		s.log.WithFields(logrus.Fields{"user_id": userID(r), "total_new": resp.TotalNew}).Info("achievements unlocked")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Profile(userID(r))
	if err != nil {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var in domain.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.store.UpsertProfile(userID(r), in))
}

func (s *Server) signSession(userID int64, sid string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"sid": sid,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		parsed, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		sid, _ := claims["sid"].(string)
		uid, ok := s.store.SessionUser(sid)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeySession, sessionInfo{ID: sid, UserID: uid})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"request_id": middleware.GetReqID(r.Context()),
			"elapsed":    time.Since(started),
		}).Debug("request served")
	})
}

func sessionFromContext(ctx context.Context) sessionInfo {
	sess, _ := ctx.Value(contextKeySession).(sessionInfo)
	return sess
}

func userID(r *http.Request) int64 {
	return sessionFromContext(r.Context()).UserID
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func validDate(raw string) bool {
	_, err := time.Parse(dateLayout, raw)
	return err == nil
}

func decodeJSON(r *http.Request, target interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
