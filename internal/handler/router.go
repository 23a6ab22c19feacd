package handler

import (
	"blog-api/internal/middleware"
	"blog-api/internal/security"

	"github.com/go-chi/chi/v5"
)

// API bundles what the /api/v1 routes are built from
type API struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Posts    *PostHandler
	Comments *CommentHandler

	Authenticator middleware.Authenticator
	// AuthLimiter throttles the unauthenticated account endpoints.
	// Optional; nil disables it.
	AuthLimiter *middleware.RateLimiter
	APILimiter  *middleware.RateLimiter
	CSRF        middleware.CSRFConfig
}

// Mount registers the /api/v1 routes on r
func (a *API) Mount(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		// Public account endpoints
		r.Group(func(r chi.Router) {
			if a.AuthLimiter != nil {
				r.Use(a.AuthLimiter.Middleware())
			}
			r.Post("/auth/login", a.Auth.Login)
			r.Post("/users", a.Auth.Register)
			r.Get("/users/activate/{uidb64}/{token}", a.Auth.Activate)
			r.Post("/users/password-reset", a.Auth.RequestPasswordReset)
			r.Get("/users/password-reset/{uidb64}/{token}", a.Auth.CheckPasswordResetLink)
			r.Post("/users/password-reset/{uidb64}/{token}", a.Auth.ConfirmPasswordReset)
		})

		// Public reads; a bearer token lets owners see their drafts
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(a.Authenticator))
			r.Get("/posts", a.Posts.List)
			r.Get("/posts/{id}", a.Posts.Get)
			r.Get("/posts/{id}/comments", a.Comments.ListForPost)
			r.Get("/categories", a.Posts.ListCategories)
			r.Get("/categories/{id}", a.Posts.GetCategory)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(a.Authenticator))
			if a.APILimiter != nil {
				r.Use(a.APILimiter.Middleware())
			}
			r.Use(middleware.CSRF(a.CSRF))

			r.Post("/auth/logout", a.Auth.Logout)

			r.With(middleware.RequireScopes(security.ScopeMeRead)).Get("/users/me", a.Users.Me)
			r.With(middleware.RequireScopes(security.ScopeMeUpdate)).Patch("/users/me", a.Users.UpdateMe)
			r.With(middleware.RequireScopes(security.ScopeMeDelete)).Delete("/users/me", a.Users.DeleteMe)
			r.With(middleware.RequireScopes(security.ScopeMeUpdate)).Post("/users/me/image", a.Users.UploadImage)
			r.With(middleware.RequireScopes(security.ScopeMeRead, security.ScopePostRead)).Get("/users/me/posts", a.Users.MyPosts)
			r.With(middleware.RequireScopes(security.ScopeMeRead, security.ScopeCommentRead)).Get("/users/me/comments", a.Users.MyComments)

			r.With(middleware.RequireScopes(security.ScopeUserRead)).Get("/users", a.Users.List)
			r.With(middleware.RequireScopes(security.ScopeUserRead)).Get("/users/{id}", a.Users.Get)
			r.With(middleware.RequireScopes(security.ScopeUserDelete)).Delete("/users/{id}", a.Users.Delete)

			r.With(middleware.RequireScopes(security.ScopePostCreate)).Post("/posts", a.Posts.Create)
			r.With(middleware.RequireScopes(security.ScopePostUpdate)).Put("/posts/{id}", a.Posts.Update)
			r.With(middleware.RequireScopes(security.ScopePostDelete)).Delete("/posts/{id}", a.Posts.Delete)

			r.With(middleware.RequireScopes(security.ScopeCommentCreate)).Post("/posts/{id}/comments", a.Comments.Create)
			r.With(middleware.RequireScopes(security.ScopeCommentUpdate)).Put("/comments/{id}", a.Comments.Update)
			r.With(middleware.RequireScopes(security.ScopeCommentDelete)).Delete("/comments/{id}", a.Comments.Delete)
			r.With(middleware.RequireScopes(security.ScopeCommentRate)).Post("/comments/{id}/{action}", a.Comments.React)

			r.With(middleware.RequireScopes(security.ScopeCategoryCreate)).Post("/categories", a.Posts.CreateCategory)
		})
	})
}

// NewRouter returns a router serving only the API. The server adds the
// operational endpoints around it.
func (a *API) NewRouter() chi.Router {
	r := chi.NewRouter()
	a.Mount(r)
	return r
}
