// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skyfare/internal/http/middleware"
	"skyfare/internal/modules/fare"
	"skyfare/internal/modules/rates"
)

// Distancer resolves driving distance for quote requests that omit it.
type Distancer interface {
	DistanceKm(ctx context.Context, origin, destination string) (float64, error)
}

type ServerDeps struct {
	Rates    *rates.Service
	Fare     *fare.Service
	Distance Distancer
	Log      *zap.Logger
}

type Server struct {
	rates    *rates.Service
	fare     *fare.Service
	distance Distancer
	log      *zap.Logger
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		rates:    deps.Rates,
		fare:     deps.Fare,
		distance: deps.Distance,
		log:      log,
	}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(s.log), middleware.Recovery(s.log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	api.POST("/quotes", s.handleQuote)

	admin := api.Group("/admin")
	admin.GET("/registry/version", s.handleRegistryVersion)

	admin.GET("/vehicle-classes", s.handleListVehicleClasses)
	admin.PUT("/vehicle-classes", s.handleUpsertVehicleClass)
	admin.DELETE("/vehicle-classes/:id", s.handleDeleteVehicleClass)

	admin.GET("/holiday-rules", s.handleListHolidayRules)
	admin.PUT("/holiday-rules", s.handleUpsertHolidayRule)
	admin.DELETE("/holiday-rules/:id", s.handleDeleteHolidayRule)

	admin.GET("/route-rates", s.handleListRouteRates)
	admin.PUT("/route-rates", s.handleUpsertRouteRate)
	admin.DELETE("/route-rates/:id", s.handleDeleteRouteRate)

	admin.GET("/matrix", s.handleMatrix)
	admin.PUT("/matrix", s.handleUpsertMatrixCell)

	admin.GET("/mileage", s.handleMileage)
	admin.PUT("/mileage", s.handleUpdateMileage)

	admin.GET("/airports", s.handleListAirports)
	admin.POST("/airports", s.handleAddAirport)
	admin.DELETE("/airports/:name", s.handleDeleteAirport)

	admin.GET("/regions", s.handleListRegions)
	admin.POST("/regions", s.handleAddRegion)
	admin.DELETE("/regions/:name", s.handleDeleteRegion)

	return r
}
