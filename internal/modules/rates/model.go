// README: Rate registry entities: vehicle classes, holiday rules, fixed routes, the airport x region matrix and the mileage fallback.
package rates

import (
	"time"

	"github.com/shopspring/decimal"
)

// VehicleClassID keys the per-class price columns of the matrix.
type VehicleClassID int64

// SeatTier prices one child-seat category and caps how many may be booked.
type SeatTier struct {
	UnitPrice int64
	MaxCount  int
}

type VehicleClass struct {
	ID   VehicleClassID
	Name string

	Seats         int
	MaxPassengers int
	MaxLuggage    int
	Quantity      int

	DispatchPrice         int64
	BasePrice             int64
	BaseDistanceKm        float64
	OverDistanceUnitPrice int64

	NightSurcharge       int64
	ModelSurcharge       int64
	HolidaySurchargeFlat int64
	OffPeakDiscount      int64

	SeatInfant  SeatTier
	SeatChild   SeatTier
	SeatBooster SeatTier

	SignagePrice       int64
	ExtraStopPrice     int64
	RemoteAreaPrice    int64
	CrossDistrictPrice int64

	Active         bool
	LastModifiedAt time.Time
	ModifiedBy     string
}

type SurchargeKind string

const (
	SurchargeFlat       SurchargeKind = "flat"
	SurchargeMultiplier SurchargeKind = "multiplier"
)

// HolidayRule marks an inclusive date range as surcharged. Flat rules carry
// an NT$ amount in Value; multiplier rules carry a factor (1.2 = +20%).
type HolidayRule struct {
	ID     int64
	Name   string
	Start  time.Time
	End    time.Time
	Kind   SurchargeKind
	Value  decimal.Decimal
	Active bool

	LastModifiedAt time.Time
	ModifiedBy     string
}

// Covers reports whether the rule's date range contains the given day.
// Only the calendar date is compared; times of day are ignored.
func (r HolidayRule) Covers(day time.Time) bool {
	d := dateOnly(day)
	return !d.Before(dateOnly(r.Start)) && !d.After(dateOnly(r.End))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RouteRate fixes the price of one directional origin → destination pair.
// A→B and B→A are distinct rows.
type RouteRate struct {
	ID     int64
	Name   string
	Start  string
	End    string
	Price  int64
	Active bool

	LastModifiedAt time.Time
	ModifiedBy     string
}

// MatrixKey is the natural key of one airport x region cell.
type MatrixKey struct {
	Airport string
	Region  string
}

// AirportRegionRate is one cell of the airport x region price matrix.
// Prices is sparse: a vehicle class without an entry falls through to the
// mileage tier for this cell.
type AirportRegionRate struct {
	Airport         string
	Region          string
	Prices          map[VehicleClassID]int64
	RemoteSurcharge int64
	Active          bool

	LastModifiedAt time.Time
	ModifiedBy     string
}

func (c AirportRegionRate) Key() MatrixKey {
	return MatrixKey{Airport: c.Airport, Region: c.Region}
}

// MileageTable is the global distance-based fallback used when neither a
// fixed route nor a matrix cell prices the trip.
type MileageTable struct {
	BasePrice                int64
	BaseDistanceKm           float64
	PerKmPrice               int64
	NightSurchargeMultiplier decimal.Decimal

	LastModifiedAt time.Time
	ModifiedBy     string
}
