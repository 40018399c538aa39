package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/comment"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/feedback"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/idea"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/observability"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/schema"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Logger *zap.SugaredLogger

	// DBTime reads the database clock for /api/ping.
	DBTime func(ctx context.Context) (time.Time, error)

	Issuer *auth.Issuer
	Users  auth.UserLoader

	User     *user.Handler
	Idea     *idea.Handler
	Comment  *comment.Handler
	Feedback *feedback.Handler
	// Schema mounts the drop-and-recreate table routes when non-nil.
	Schema *schema.Handler

	Metrics     *observability.Metrics
	CORSOrigins []string
}

// PingResponse is the /api/ping body.
type PingResponse struct {
	Pong   bool      `json:"pong"`
	DBTime time.Time `json:"dbTime"`
}

// RegisterRoutes mounts all HTTP handlers on a chi router and wraps them in
// the global middleware chain.
func RegisterRoutes(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(LoggingMiddleware(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(RecoverMiddleware(d.Logger))
	r.Use(SecurityHeadersMiddleware())
	r.Use(CORSMiddleware(d.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/ping", pingHandler(d))

		api.Post("/register", d.User.Register)
		api.Post("/login", d.User.Login)
		api.Post("/feedback", d.Feedback.Submit)

		if d.Schema != nil {
			for _, t := range schema.All() {
				api.Get("/create_table_"+t.Name, d.Schema.Create(t))
			}
		}

		api.Group(func(p chi.Router) {
			p.Use(auth.Middleware(d.Issuer, d.Users, d.Logger))

			p.Get("/me", d.User.Me)

			p.Get("/ideas", d.Idea.List)
			p.Get("/my-ideas", d.Idea.ListMine)
			p.Post("/ideas", d.Idea.Create)
			p.Get("/ideas/{id}", d.Idea.Get)
			p.Patch("/ideas/{id}", d.Idea.Update)
			p.Delete("/ideas/{id}", d.Idea.Delete)

			p.Post("/ideas/{id}/comments", d.Comment.Create)
			p.Get("/ideas/{id}/comments", d.Comment.List)
			p.Delete("/comments/{id}", d.Comment.Delete)
		})
	})

	return r
}

func pingHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now, err := d.DBTime(r.Context())
		if err != nil {
			d.Logger.Errorw("ping database failed", "err", err)
			utilities.WriteError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		utilities.WriteJSON(w, http.StatusOK, PingResponse{Pong: true, DBTime: now})
	}
}
