package server

import (
	"github.com/gin-gonic/gin"

	"gpx_poster/internal/render"
)

type Options struct {
	MaxUploadBytes     int64
	RateLimitPerMinute int
	RateLimitBurst     int
	DefaultMapStyle    string
}

type Server struct {
	Store   *Store
	Limiter *RateLimiter
	handler *Handler
}

func New(store *Store, renderer *render.Renderer, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{
		Store:   store,
		Limiter: NewRateLimiter(opts.RateLimitPerMinute, opts.RateLimitBurst),
		handler: &Handler{
			store:          store,
			renderer:       renderer,
			maxUploadBytes: opts.MaxUploadBytes,
			defaultStyle:   opts.DefaultMapStyle,
		},
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	v1 := r.Group("/api/v1")
	v1.GET("/health", s.handler.Health)

	sessions := v1.Group("/sessions")
	sessions.Use(s.Limiter.Middleware())
	{
		sessions.POST("", s.handler.CreateSession)
		sessions.GET("/:id", s.handler.GetSession)
		sessions.PATCH("/:id", s.handler.UpdateSession)
		sessions.DELETE("/:id", s.handler.DeleteSession)
		sessions.POST("/:id/reset", s.handler.ResetSession)
		sessions.PUT("/:id/track", s.handler.ReplaceTrack)
		sessions.GET("/:id/route", s.handler.GetRoute)
		sessions.GET("/:id/poster.png", s.handler.GetPoster)
	}
	return r
}
