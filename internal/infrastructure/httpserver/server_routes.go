package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	admin := api.Group("/cache")
	admin.Use(s.middleware.AdminJWT.RequireAdmin())

	admin.GET("/stats", s.getCacheStats)
	admin.GET("/keys/:key/ttl", s.getCacheKeyTTL)
	admin.DELETE("/keys/:key", s.deleteCacheKey)
	admin.DELETE("/keys", s.deleteCachePattern)
	admin.DELETE("/tags/:tag", s.deleteCacheTag)
	admin.POST("/tags/reconcile", s.reconcileCacheTags)
	admin.DELETE("", s.clearCache)
}
