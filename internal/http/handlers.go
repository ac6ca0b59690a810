package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type healthResponse struct {
	OK          bool      `json:"ok"`
	Message     string    `json:"message"`
	Now         time.Time `json:"now"`
	Uptime      string    `json:"uptime"`
	Requests    int64     `json:"requests"`
	RateLimited int64     `json:"rateLimited"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		OK:          true,
		Message:     "Backend ok",
		Now:         time.Now().UTC(),
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Requests:    s.tracer.TotalRequests(),
		RateLimited: s.limiter.GetMetrics().RejectedRequests,
	}
	status := http.StatusOK

	if s.svc.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.svc.Health.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Health check failed", log.NewFields().WithError(err).ToSlice()...)
			resp.OK = false
			resp.Message = "storage unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	NewJSONResponse().Status(status).Body(resp).Write(w)
}

type authResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(r.Context(), w, err, log.OpCreate)
		return
	}

	token, user, err := s.svc.Identity.Register(r.Context(), p.Get("name"), p.Get("email"), p.Get("password"))
	if err != nil {
		writeError(r.Context(), w, err, log.OpCreate)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentAuth).
		InfoContext(r.Context(), "User registered", log.FieldOwnerID, user.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(authResponse{Token: token, User: user}).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(r.Context(), w, err, log.OpRead)
		return
	}

	token, user, err := s.svc.Identity.Login(r.Context(), p.Get("email"), p.Get("password"))
	if err != nil {
		writeError(r.Context(), w, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(authResponse{Token: token, User: user}).Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, ownerID int64) {
	user, err := s.svc.Identity.Me(r.Context(), ownerID)
	if err != nil {
		writeError(r.Context(), w, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(user).Write(w)
}
