package main

import (
	"context"
	"errors"
	"fmt"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/session"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

func (app *Application) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil && rec != http.ErrAbortHandler {
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				app.Http.ServerError(w, r, err, "")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *Application) RateLimiter(next http.Handler) http.Handler {
	const op = "middlewares.RateLimiter"
	log := app.log.With("op", op)
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	clients := make(map[string]*client)
	var mu sync.Mutex
	if app.cfg.Limiter.Enabled {
		go func() {
			for {
				time.Sleep(5 * time.Minute)
				mu.Lock()
				for ip, client := range clients {
					if time.Since(client.lastSeen) > 5*time.Minute {
						delete(clients, ip)
					}
				}
				mu.Unlock()
			}
		}()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.cfg.Limiter.Enabled {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				app.Http.ServerError(w, r, err, "")
				return
			}
			mu.Lock()
			c, ok := clients[ip]
			if !ok {
				c = &client{limiter: rate.NewLimiter(rate.Limit(app.cfg.Limiter.Rps), app.cfg.Limiter.Burst)}
				clients[ip] = c
			}
			c.lastSeen = time.Now()
			allowed := c.limiter.Allow()
			mu.Unlock()
			if !allowed {
				log.Warn("rate limit exceeded", "ip", ip)
				app.Http.Response(
					w, r,
					envelop{"error": "rate limit exceeded"},
					"Can't process request see an error below.",
					http.StatusTooManyRequests,
				)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type CtxKey string

const CtxKeySession CtxKey = "session"

func sessionFromCtx(r *http.Request) models.Session {
	sess, _ := r.Context().Value(CtxKeySession).(models.Session)
	return sess
}

// requireSession rejects requests made while nobody is logged in and puts the
// current session into the request context.
func (app *Application) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := app.sessions.Current()
		if !ok {
			app.Http.Unauthorized(w, r, "You must be logged in to access this resource")
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), CtxKeySession, sess))
		next.ServeHTTP(w, r)
	})
}

func (app *Application) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := session.RequireAdmin(sessionFromCtx(r))
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, session.ErrNoSession):
			app.Http.Unauthorized(w, r, "You must be logged in to access this resource")
		default:
			app.Http.Forbidden(w, r, "Only admins can manage movies")
		}
	})
}
