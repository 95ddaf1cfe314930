// Package server exposes the planner over an HTTP JSON API.
package server

import (
	"net/http"
	"time"

	"cafeteria-planner/internal/app"
	"cafeteria-planner/internal/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Server is the HTTP API.
type Server struct {
	router *gin.Engine
	app    *app.App
	auth   *auth.Manager
}

// New builds the router. allowOrigins configures CORS; empty allows any origin.
func New(a *app.App, authManager *auth.Manager, allowOrigins []string) *Server {
	s := &Server{
		router: gin.New(),
		app:    a,
		auth:   authManager,
	}
	s.setupRoutes(allowOrigins)
	return s
}

// Handler returns the router for use in an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(allowOrigins []string) {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowOrigins
	}

	s.router.Use(gin.Recovery(), requestLogger(), cors.New(corsCfg))

	s.router.GET("/health", s.health)
	if c := s.app.Collectors(); c != nil {
		s.router.GET("/metrics", gin.WrapH(c.Handler()))
	}

	api := s.router.Group("/api")
	api.Use(s.auth.Middleware())
	{
		api.GET("/recipes", s.listRecipes)
		api.POST("/recipes", s.addRecipe)
		api.PUT("/recipes/:index", s.replaceRecipe)
		api.DELETE("/recipes/:name", s.removeRecipe)

		api.POST("/orders/calculate", s.calculate)
		api.POST("/orders/export", s.exportOrder)

		api.GET("/history", s.listHistory)
		api.GET("/history/export", s.exportHistory)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.Health())
}
