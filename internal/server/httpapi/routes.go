package httpapi

import "github.com/gin-gonic/gin"

func (s *Server) routes() {
	v1 := s.router.Group("/api/v1")
	v1.POST("/collector-auth", s.collectorAuth)
	v1.POST("/collector-data", s.collectorData)
	v1.POST("/submissions", s.submit)

	admin := v1.Group("/admin", s.adminMiddleware())
	admin.GET("/settings", s.getSettings)
	admin.PUT("/settings", s.updateSettings)
	admin.POST("/batches/:id/delivery", s.setBatchDelivery)
	admin.GET("/submissions", s.listSubmissions)
	admin.DELETE("/submissions/:id", s.deleteSubmission)
	admin.GET("/collectors", s.collectorFinances)
	admin.POST("/collectors/:id/active", s.setCollectorActive)

	s.router.GET("/healthz", s.healthz)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}
