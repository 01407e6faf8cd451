// README: Quote endpoint for the booking flow.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"skyfare/internal/modules/fare"
	"skyfare/internal/modules/rates"
)

type endpointDTO struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

type discountDTO struct {
	Kind  string          `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

type quoteReq struct {
	Origin         endpointDTO  `json:"origin"`
	Destination    endpointDTO  `json:"destination"`
	VehicleClassID int64        `json:"vehicleClassId"`
	PickupAt       time.Time    `json:"pickupAt"`
	Passengers     int          `json:"passengers"`
	Luggage        int          `json:"luggage"`
	DistanceKm     *float64     `json:"distanceKm"`
	SeatInfant     int          `json:"seatInfant"`
	SeatChild      int          `json:"seatChild"`
	SeatBooster    int          `json:"seatBooster"`
	Signage        bool         `json:"signage"`
	ExtraStops     int          `json:"extraStops"`
	RemoteArea     bool         `json:"remoteArea"`
	CrossDistrict  bool         `json:"crossDistrict"`
	OffPeak        bool         `json:"offPeak"`
	Discount       *discountDTO `json:"discount"`
}

func (s *Server) handleQuote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if req.Origin.Name == "" || req.Destination.Name == "" {
		badRequest(c, "origin and destination are required")
		return
	}
	if req.PickupAt.IsZero() {
		badRequest(c, "pickupAt is required")
		return
	}

	trip := fare.TripRequest{
		Origin:         toEndpoint(req.Origin),
		Destination:    toEndpoint(req.Destination),
		VehicleClassID: rates.VehicleClassID(req.VehicleClassID),
		PickupAt:       req.PickupAt,
		Passengers:     req.Passengers,
		Luggage:        req.Luggage,
		SeatInfant:     req.SeatInfant,
		SeatChild:      req.SeatChild,
		SeatBooster:    req.SeatBooster,
		Signage:        req.Signage,
		ExtraStops:     req.ExtraStops,
		RemoteArea:     req.RemoteArea,
		CrossDistrict:  req.CrossDistrict,
		OffPeak:        req.OffPeak,
	}
	if req.Discount != nil {
		trip.Discount = &fare.Discount{
			Kind:  fare.DiscountKind(req.Discount.Kind),
			Value: req.Discount.Value,
		}
	}

	switch {
	case req.DistanceKm != nil:
		trip.DistanceKm = *req.DistanceKm
	case s.distance != nil:
		km, err := s.distance.DistanceKm(c.Request.Context(), req.Origin.Name, req.Destination.Name)
		if err != nil {
			s.log.Warn("distance lookup failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "distance service unavailable"})
			return
		}
		trip.DistanceKm = km
	}

	bd, err := s.fare.Quote(c.Request.Context(), trip)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bd)
}

func toEndpoint(d endpointDTO) fare.Endpoint {
	kind := fare.EndpointKind(d.Kind)
	if kind != fare.EndpointAirport {
		kind = fare.EndpointPlain
	}
	return fare.Endpoint{Kind: kind, Name: d.Name, Region: d.Region}
}
