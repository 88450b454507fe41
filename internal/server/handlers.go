package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/teemow/dayglance/internal/annotate"
	"github.com/teemow/dayglance/internal/instrumentation"
	"github.com/teemow/dayglance/internal/logging"
	"github.com/teemow/dayglance/internal/session"
)

const msgNotLoggedIn = "Not logged in"

// oauthState is a fixed CSRF token placeholder; the flow relies on the
// signed session cookie rather than per-request state.
const oauthState = "state"

// authFailedRedirect is where callback failures land instead of a bare 500.
const authFailedRedirect = "/?error=auth_failed"

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "dayglance"})
}

// handleMe returns the signed-in user's profile.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(r)
	if !ok || sess.User == nil {
		writeError(w, http.StatusUnauthorized, msgNotLoggedIn)
		return
	}
	writeJSON(w, http.StatusOK, sess.User)
}

// handleAuthGoogle redirects to the external authorization URL.
func (s *Server) handleAuthGoogle(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.oauth.AuthURL(oauthState), http.StatusFound)
}

// handleAuthCallback exchanges the authorization code, fetches the profile
// and populates the session. Any upstream failure redirects to an error
// state instead of surfacing an unhandled 500.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithOperation(s.logger, "oauth_callback")

	code := r.URL.Query().Get("code")
	if code == "" {
		logger.Warn("callback without authorization code")
		s.metrics.RecordOAuthAuth(ctx, "failure")
		http.Redirect(w, r, authFailedRedirect, http.StatusFound)
		return
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		logger.Error("token exchange failed", logging.Err(err))
		s.metrics.RecordOAuthAuth(ctx, "failure")
		http.Redirect(w, r, authFailedRedirect, http.StatusFound)
		return
	}

	profile, err := s.oauth.FetchProfile(ctx, token)
	if err != nil {
		logger.Error("profile fetch failed", logging.Err(err))
		s.metrics.RecordOAuthAuth(ctx, "failure")
		http.Redirect(w, r, authFailedRedirect, http.StatusFound)
		return
	}

	s.sessions.Set(w, r, &session.Session{
		User: &session.User{
			ID:      profile.ID,
			Name:    profile.Name,
			Email:   profile.Email,
			Picture: profile.Picture,
		},
		Tokens: &session.Tokens{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
		},
	})

	s.metrics.RecordOAuthAuth(ctx, "success")
	s.metrics.IncrementActiveSessions(ctx)
	logger.Info("user signed in", logging.UserHash(profile.Email))

	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogout destroys the session. Cleanup is best-effort: a destroy
// error is logged and the redirect happens regardless.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	_, hadSession := s.sessions.Get(r)

	if err := s.sessions.Destroy(w, r); err != nil {
		s.logger.Error("failed to destroy session", logging.Operation("logout"), logging.Err(err))
	} else if hadSession {
		s.metrics.DecrementActiveSessions(r.Context())
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// requireTokens returns the session when it carries OAuth tokens, writing
// the 401 response otherwise.
func (s *Server) requireTokens(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.sessions.Get(r)
	if !ok || sess.Tokens == nil || sess.Tokens.AccessToken == "" {
		writeError(w, http.StatusUnauthorized, msgNotLoggedIn)
		return nil, false
	}
	return sess, true
}

// handleCalendarToday returns today's raw event list.
func (s *Server) handleCalendarToday(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireTokens(w, r)
	if !ok {
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "calendar.window")
	defer span.End()

	client, err := s.newCalendar(ctx, sess.Tokens)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	start := time.Now()
	events, err := client.Window(ctx, 1)
	s.recordCalendarOp(ctx, "window", err, time.Since(start))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// handleCalendarFourDays returns the fixed four-day bucketed view.
func (s *Server) handleCalendarFourDays(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireTokens(w, r)
	if !ok {
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "calendar.four_day_view")
	defer span.End()

	client, err := s.newCalendar(ctx, sess.Tokens)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	start := time.Now()
	days, err := client.FourDayView(ctx)
	s.recordCalendarOp(ctx, "four_day_view", err, time.Since(start))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// handleCalendarDebug lists every visible calendar with a few upcoming events.
func (s *Server) handleCalendarDebug(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireTokens(w, r)
	if !ok {
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "calendar.samples")
	defer span.End()

	client, err := s.newCalendar(ctx, sess.Tokens)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	start := time.Now()
	samples, err := client.CalendarSamples(ctx)
	s.recordCalendarOp(ctx, "samples", err, time.Since(start))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, samples)
}

// handleAnnotate serves the cache-then-generate annotation endpoint.
func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	var req annotate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "annotate")
	defer span.End()

	start := time.Now()
	res, err := s.annotator.Annotate(ctx, req)
	if err != nil {
		if errors.Is(err, annotate.ErrMissingFields) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.metrics.RecordAnnotationRequest(ctx, instrumentation.ResultError)
		s.logger.Error("annotation failed", logging.Operation("annotate"), logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if res.Cached {
		s.metrics.RecordAnnotationRequest(ctx, instrumentation.ResultHit)
	} else {
		s.metrics.RecordAnnotationRequest(ctx, instrumentation.ResultMiss)
		s.metrics.RecordGeneration(ctx, instrumentation.StatusSuccess, time.Since(start))
	}

	writeJSON(w, http.StatusOK, res)
}

// recordCalendarOp maps an error to a status label and records the operation.
func (s *Server) recordCalendarOp(ctx context.Context, operation string, err error, duration time.Duration) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	s.metrics.RecordCalendarOperation(ctx, operation, status, duration)
}
