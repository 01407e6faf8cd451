// README: Admin pricing handlers; thin JSON mapping over the rate admin gateway.
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"skyfare/internal/modules/rates"
)

const dateLayout = "2006-01-02"

type seatTierDTO struct {
	UnitPrice int64 `json:"unitPrice"`
	MaxCount  int   `json:"maxCount"`
}

type vehicleClassDTO struct {
	ID                    int64       `json:"id"`
	Name                  string      `json:"name"`
	Seats                 int         `json:"seats"`
	MaxPassengers         int         `json:"maxPassengers"`
	MaxLuggage            int         `json:"maxLuggage"`
	Quantity              int         `json:"quantity"`
	DispatchPrice         int64       `json:"dispatchPrice"`
	BasePrice             int64       `json:"basePrice"`
	BaseDistanceKm        float64     `json:"baseDistanceKm"`
	OverDistanceUnitPrice int64       `json:"overDistanceUnitPrice"`
	NightSurcharge        int64       `json:"nightSurcharge"`
	ModelSurcharge        int64       `json:"modelSurcharge"`
	HolidaySurchargeFlat  int64       `json:"holidaySurchargeFlat"`
	OffPeakDiscount       int64       `json:"offPeakDiscount"`
	SeatInfant            seatTierDTO `json:"seatInfant"`
	SeatChild             seatTierDTO `json:"seatChild"`
	SeatBooster           seatTierDTO `json:"seatBooster"`
	SignagePrice          int64       `json:"signagePrice"`
	ExtraStopPrice        int64       `json:"extraStopPrice"`
	RemoteAreaPrice       int64       `json:"remoteAreaPrice"`
	CrossDistrictPrice    int64       `json:"crossDistrictPrice"`
	Active                bool        `json:"active"`
	LastModifiedAt        time.Time   `json:"lastModifiedAt"`
	ModifiedBy            string      `json:"modifiedBy"`
}

func toVehicleClass(d vehicleClassDTO) rates.VehicleClass {
	return rates.VehicleClass{
		ID:                    rates.VehicleClassID(d.ID),
		Name:                  d.Name,
		Seats:                 d.Seats,
		MaxPassengers:         d.MaxPassengers,
		MaxLuggage:            d.MaxLuggage,
		Quantity:              d.Quantity,
		DispatchPrice:         d.DispatchPrice,
		BasePrice:             d.BasePrice,
		BaseDistanceKm:        d.BaseDistanceKm,
		OverDistanceUnitPrice: d.OverDistanceUnitPrice,
		NightSurcharge:        d.NightSurcharge,
		ModelSurcharge:        d.ModelSurcharge,
		HolidaySurchargeFlat:  d.HolidaySurchargeFlat,
		OffPeakDiscount:       d.OffPeakDiscount,
		SeatInfant:            rates.SeatTier(d.SeatInfant),
		SeatChild:             rates.SeatTier(d.SeatChild),
		SeatBooster:           rates.SeatTier(d.SeatBooster),
		SignagePrice:          d.SignagePrice,
		ExtraStopPrice:        d.ExtraStopPrice,
		RemoteAreaPrice:       d.RemoteAreaPrice,
		CrossDistrictPrice:    d.CrossDistrictPrice,
		Active:                d.Active,
	}
}

func fromVehicleClass(vc rates.VehicleClass) vehicleClassDTO {
	return vehicleClassDTO{
		ID:                    int64(vc.ID),
		Name:                  vc.Name,
		Seats:                 vc.Seats,
		MaxPassengers:         vc.MaxPassengers,
		MaxLuggage:            vc.MaxLuggage,
		Quantity:              vc.Quantity,
		DispatchPrice:         vc.DispatchPrice,
		BasePrice:             vc.BasePrice,
		BaseDistanceKm:        vc.BaseDistanceKm,
		OverDistanceUnitPrice: vc.OverDistanceUnitPrice,
		NightSurcharge:        vc.NightSurcharge,
		ModelSurcharge:        vc.ModelSurcharge,
		HolidaySurchargeFlat:  vc.HolidaySurchargeFlat,
		OffPeakDiscount:       vc.OffPeakDiscount,
		SeatInfant:            seatTierDTO(vc.SeatInfant),
		SeatChild:             seatTierDTO(vc.SeatChild),
		SeatBooster:           seatTierDTO(vc.SeatBooster),
		SignagePrice:          vc.SignagePrice,
		ExtraStopPrice:        vc.ExtraStopPrice,
		RemoteAreaPrice:       vc.RemoteAreaPrice,
		CrossDistrictPrice:    vc.CrossDistrictPrice,
		Active:                vc.Active,
		LastModifiedAt:        vc.LastModifiedAt,
		ModifiedBy:            vc.ModifiedBy,
	}
}

func (s *Server) handleListVehicleClasses(c *gin.Context) {
	classes := s.rates.ListVehicleClasses()
	out := make([]vehicleClassDTO, len(classes))
	for i, vc := range classes {
		out[i] = fromVehicleClass(vc)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleUpsertVehicleClass(c *gin.Context) {
	var req vehicleClassDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	vc, err := s.rates.UpsertVehicleClass(c.Request.Context(), toVehicleClass(req), writeOpts(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromVehicleClass(vc))
}

func (s *Server) handleDeleteVehicleClass(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid vehicle class id")
		return
	}
	if err := s.rates.DeleteVehicleClass(c.Request.Context(), rates.VehicleClassID(id), writeOpts(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type holidayRuleDTO struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Start          string          `json:"start"`
	End            string          `json:"end"`
	Kind           string          `json:"kind"`
	Value          decimal.Decimal `json:"value"`
	Active         bool            `json:"active"`
	LastModifiedAt time.Time       `json:"lastModifiedAt"`
	ModifiedBy     string          `json:"modifiedBy"`
}

func (s *Server) handleListHolidayRules(c *gin.Context) {
	rules := s.rates.ListHolidayRules()
	out := make([]holidayRuleDTO, len(rules))
	for i, hr := range rules {
		out[i] = holidayRuleDTO{
			ID:             hr.ID,
			Name:           hr.Name,
			Start:          hr.Start.Format(dateLayout),
			End:            hr.End.Format(dateLayout),
			Kind:           string(hr.Kind),
			Value:          hr.Value,
			Active:         hr.Active,
			LastModifiedAt: hr.LastModifiedAt,
			ModifiedBy:     hr.ModifiedBy,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleUpsertHolidayRule(c *gin.Context) {
	var req holidayRuleDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		badRequest(c, "invalid start date")
		return
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		badRequest(c, "invalid end date")
		return
	}
	hr, err := s.rates.UpsertHolidayRule(c.Request.Context(), rates.HolidayRule{
		ID:     req.ID,
		Name:   req.Name,
		Start:  start,
		End:    end,
		Kind:   rates.SurchargeKind(req.Kind),
		Value:  req.Value,
		Active: req.Active,
	}, writeOpts(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": hr.ID})
}

func (s *Server) handleDeleteHolidayRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid holiday rule id")
		return
	}
	if err := s.rates.DeleteHolidayRule(c.Request.Context(), id, writeOpts(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type routeRateDTO struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Start          string    `json:"start"`
	End            string    `json:"end"`
	Price          int64     `json:"price"`
	Active         bool      `json:"active"`
	LastModifiedAt time.Time `json:"lastModifiedAt"`
	ModifiedBy     string    `json:"modifiedBy"`
}

func (s *Server) handleListRouteRates(c *gin.Context) {
	routes := s.rates.ListRouteRates()
	out := make([]routeRateDTO, len(routes))
	for i, rr := range routes {
		out[i] = routeRateDTO{
			ID:             rr.ID,
			Name:           rr.Name,
			Start:          rr.Start,
			End:            rr.End,
			Price:          rr.Price,
			Active:         rr.Active,
			LastModifiedAt: rr.LastModifiedAt,
			ModifiedBy:     rr.ModifiedBy,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleUpsertRouteRate(c *gin.Context) {
	var req routeRateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	rr, err := s.rates.UpsertRouteRate(c.Request.Context(), rates.RouteRate{
		ID:     req.ID,
		Name:   req.Name,
		Start:  req.Start,
		End:    req.End,
		Price:  req.Price,
		Active: req.Active,
	}, writeOpts(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": rr.ID})
}

func (s *Server) handleDeleteRouteRate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid route rate id")
		return
	}
	if err := s.rates.DeleteRouteRate(c.Request.Context(), id, writeOpts(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type matrixCellDTO struct {
	Airport         string                         `json:"airport"`
	Region          string                         `json:"region"`
	Prices          map[rates.VehicleClassID]int64 `json:"prices"`
	RemoteSurcharge int64                          `json:"remoteSurcharge"`
	Active          bool                           `json:"active"`
	LastModifiedAt  time.Time                      `json:"lastModifiedAt"`
	ModifiedBy      string                         `json:"modifiedBy"`
}

func (s *Server) handleMatrix(c *gin.Context) {
	cells := s.rates.Matrix()
	out := make([]matrixCellDTO, len(cells))
	for i, cell := range cells {
		out[i] = matrixCellDTO{
			Airport:         cell.Airport,
			Region:          cell.Region,
			Prices:          cell.Prices,
			RemoteSurcharge: cell.RemoteSurcharge,
			Active:          cell.Active,
			LastModifiedAt:  cell.LastModifiedAt,
			ModifiedBy:      cell.ModifiedBy,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleUpsertMatrixCell(c *gin.Context) {
	var req matrixCellDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	err := s.rates.UpsertAirportRegionRate(c.Request.Context(), rates.AirportRegionRate{
		Airport:         req.Airport,
		Region:          req.Region,
		Prices:          req.Prices,
		RemoteSurcharge: req.RemoteSurcharge,
		Active:          req.Active,
	}, writeOpts(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type mileageDTO struct {
	BasePrice                int64           `json:"basePrice"`
	BaseDistanceKm           float64         `json:"baseDistanceKm"`
	PerKmPrice               int64           `json:"perKmPrice"`
	NightSurchargeMultiplier decimal.Decimal `json:"nightSurchargeMultiplier"`
}

func (s *Server) handleMileage(c *gin.Context) {
	mt := s.rates.Mileage()
	c.JSON(http.StatusOK, mileageDTO{
		BasePrice:                mt.BasePrice,
		BaseDistanceKm:           mt.BaseDistanceKm,
		PerKmPrice:               mt.PerKmPrice,
		NightSurchargeMultiplier: mt.NightSurchargeMultiplier,
	})
}

func (s *Server) handleUpdateMileage(c *gin.Context) {
	var req mileageDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	err := s.rates.UpdateMileageTable(c.Request.Context(), rates.MileageTable{
		BasePrice:                req.BasePrice,
		BaseDistanceKm:           req.BaseDistanceKm,
		PerKmPrice:               req.PerKmPrice,
		NightSurchargeMultiplier: req.NightSurchargeMultiplier,
	}, writeOpts(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type nameReq struct {
	Name string `json:"name"`
}

func (s *Server) handleListAirports(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"airports": s.rates.Airports()})
}

func (s *Server) handleAddAirport(c *gin.Context) {
	var req nameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if err := s.rates.AddAirport(c.Request.Context(), req.Name, writeOpts(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) handleDeleteAirport(c *gin.Context) {
	if err := s.rates.DeleteAirport(c.Request.Context(), c.Param("name"), writeOpts(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListRegions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"regions": s.rates.Regions()})
}

func (s *Server) handleAddRegion(c *gin.Context) {
	var req nameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if err := s.rates.AddRegion(c.Request.Context(), req.Name, writeOpts(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) handleDeleteRegion(c *gin.Context) {
	if err := s.rates.DeleteRegion(c.Request.Context(), c.Param("name"), writeOpts(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRegistryVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": s.rates.Version()})
}
