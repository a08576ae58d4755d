package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) routes(prefix string) {
	s.engine.NoRoute(func(c *gin.Context) { s.respondError(c, errRouteNotFound) })
	s.engine.GET("/healthz", s.healthz)

	api := s.engine.Group(prefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.POST("/refresh", s.refresh)

	users := api.Group("/users")
	users.GET("", s.listUsers)
	users.GET("/:id", s.getUser)

	protected := users.Group("", Authenticate(s.verifier, s.respondError))
	protected.PUT("/:id", s.updateUser)
	protected.DELETE("/:id", s.deleteUser)
}

func (s *Server) healthz(c *gin.Context) {
	if err := s.health.Ping(c.Request.Context()); err != nil {
		s.logger.Warn(c.Request.Context(), "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
