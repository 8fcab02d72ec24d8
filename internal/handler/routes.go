package handler

import (
	"net/http"

	"github.com/msomdec/eventhub/internal/domain"
	"github.com/msomdec/eventhub/internal/service"
)

// Services bundles the dependencies of the HTTP routes.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Events   *service.EventService
	Comments *service.CommentService

	// AuthLimiter throttles register and login per client address. Nil
	// disables throttling.
	AuthLimiter *service.RateLimiter

	// DB backs the readiness probe.
	DB domain.Database

	// Metrics, if set, is served at GET /metrics.
	Metrics http.Handler
}

type access int

const (
	public access = iota
	authenticated
	throttled
)

type route struct {
	pattern string
	handler http.HandlerFunc
	access  access
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, s Services) {
	users := NewUserHandler(s.Auth, s.Users)
	events := NewEventHandler(s.Events)
	comments := NewCommentHandler(s.Comments)

	routes := []route{
		{"GET /healthz", HandleHealthz, public},

		{"POST /api/users/register", users.HandleRegister, throttled},
		{"POST /api/users/login", users.HandleLogin, throttled},
		{"GET /api/users/profile", users.HandleGetProfile, authenticated},
		{"PUT /api/users/profile", users.HandleUpdateProfile, authenticated},
		{"GET /api/users/{id}", users.HandleGetUser, authenticated},

		{"GET /api/events/search", events.HandleSearch, public},
		{"GET /api/events", events.HandleList, public},
		{"POST /api/events", events.HandleCreate, authenticated},
		{"GET /api/events/{id}", events.HandleGet, public},
		{"PUT /api/events/{id}", events.HandleUpdate, authenticated},
		{"DELETE /api/events/{id}", events.HandleDelete, authenticated},
		{"POST /api/events/{id}/attend", events.HandleAttend, authenticated},
		{"DELETE /api/events/{id}/attend", events.HandleUnattend, authenticated},

		{"POST /api/comments", comments.HandleCreate, authenticated},
		{"GET /api/comments/event/{eventID}", comments.HandleListByEvent, public},
		{"PUT /api/comments/{id}", comments.HandleUpdate, authenticated},
		{"DELETE /api/comments/{id}", comments.HandleDelete, authenticated},
	}
	if s.DB != nil {
		routes = append(routes, route{"GET /readyz", HandleReadyz(s.DB), public})
	}

	for _, rt := range routes {
		var h http.Handler = rt.handler
		switch rt.access {
		case authenticated:
			h = RequireAuth(s.Auth, h)
		case throttled:
			if s.AuthLimiter != nil {
				h = RateLimit(s.AuthLimiter, h)
			}
		}
		mux.Handle(rt.pattern, h)
	}

	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}
}
