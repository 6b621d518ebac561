package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/inkwell-social/apiserver/config"
	"github.com/inkwell-social/apiserver/internal/db"
	"github.com/inkwell-social/apiserver/internal/handlers"
	"github.com/inkwell-social/apiserver/internal/mailer"
	"github.com/inkwell-social/apiserver/internal/mq"
	"github.com/inkwell-social/apiserver/internal/services"
	"github.com/inkwell-social/apiserver/internal/storage"
	"github.com/inkwell-social/apiserver/internal/store"
	"github.com/inkwell-social/apiserver/internal/token"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("SECRET_KEY is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queue, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	avatars, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		_ = queue.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	roleRepo := store.NewRoleRepository(dbConn)
	followRepo := store.NewFollowRepository(dbConn)
	postRepo := store.NewPostRepository(dbConn)
	commentRepo := store.NewCommentRepository(dbConn)

	issuer := token.NewIssuer(cfg.SecretKey)
	outbound := mailer.New(queue, cfg.Mail)

	userService := services.NewUserService(userRepo, roleRepo, cfg.AdminEmail)
	accountService := services.NewAccountService(userRepo, issuer, outbound)
	followService := services.NewFollowService(followRepo)
	postService := services.NewPostService(postRepo)
	commentService := services.NewCommentService(commentRepo)

	auth := handlers.NewAuthenticator(userService, accountService)
	authHandler := handlers.NewAuthHandler(userService, accountService, userRepo)
	userHandler := handlers.NewUserHandler(userService, followService, postService, cfg.PageSize)
	postHandler := handlers.NewPostHandler(postService, commentService, cfg.PageSize)
	commentHandler := handlers.NewCommentHandler(commentService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler, auth)
	})
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Resolve, handlers.RequireConfirmed)
		r.With(handlers.RequireAuthenticated).Post("/tokens", authHandler.IssueToken)
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userHandler)
			if avatars != nil {
				avatarHandler := handlers.NewAvatarHandler(userService, avatars)
				handlers.AvatarRouter(r, avatarHandler)
			}
		})
		r.Route("/posts", func(r chi.Router) {
			handlers.PostRouter(r, postHandler)
		})
		r.Route("/comments", func(r chi.Router) {
			handlers.CommentRouter(r, commentHandler)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	return s.httpServer.Close()
}
