// README: Trip request and itemized price breakdown types.
package fare

import (
	"time"

	"github.com/shopspring/decimal"

	"skyfare/internal/modules/rates"
	"skyfare/internal/types"
)

type EndpointKind string

const (
	EndpointPlain   EndpointKind = "plain"
	EndpointAirport EndpointKind = "airport"
)

// Endpoint is one end of a trip. Airport endpoints carry the registered
// airport (or port) name; plain endpoints carry a free-form location plus
// the registered region the geocoding collaborator resolved it to.
type Endpoint struct {
	Kind   EndpointKind
	Name   string
	Region string
}

type DiscountKind string

const (
	DiscountFlat    DiscountKind = "flat"
	DiscountPercent DiscountKind = "percent"
)

// Discount is an already-validated coupon result from the external coupon
// module. Flat values are NT$; percent values are 0-100.
type Discount struct {
	Kind  DiscountKind
	Value decimal.Decimal
}

type TripRequest struct {
	Origin      Endpoint
	Destination Endpoint

	VehicleClassID rates.VehicleClassID
	PickupAt       time.Time
	Passengers     int
	Luggage        int

	// DistanceKm comes from the caller's distance collaborator; the engine
	// never computes it.
	DistanceKm float64

	SeatInfant  int
	SeatChild   int
	SeatBooster int

	Signage       bool
	ExtraStops    int
	RemoteArea    bool
	CrossDistrict bool
	OffPeak       bool

	Discount *Discount
}

// Tier is the base-pricing strategy the engine selected.
type Tier string

const (
	TierRoute   Tier = "route"
	TierMatrix  Tier = "matrix"
	TierMileage Tier = "mileage"
)

// Line item codes mirror the itemized fields on the order detail screen.
const (
	ItemBase          = "base"
	ItemVehicleType   = "vehicleType"
	ItemNight         = "night"
	ItemHoliday       = "holiday"
	ItemCarSeat       = "carSeat"
	ItemSignage       = "signage"
	ItemArea          = "area"
	ItemCrossDistrict = "crossDistrict"
	ItemExtraStop     = "extraStop"
	ItemOffPeak       = "offPeak"
	ItemCoupon        = "coupon"
)

// LineItem is one named fare component. Source records which tier or rule
// produced the amount, for auditing and regression against historical
// orders.
type LineItem struct {
	Code   string `json:"code"`
	Source string `json:"source"`
	Amount int64  `json:"amount"`
}

// PriceBreakdown itemizes one resolved quote. Items always sum to Total.
type PriceBreakdown struct {
	RegistryVersion int64       `json:"registry_version"`
	Tier            Tier        `json:"tier"`
	Items           []LineItem  `json:"items"`
	Total           types.Money `json:"total"`
}
