// README: Versioned, immutable registry snapshot. Writers clone, mutate and swap; readers keep whatever pointer they took.
package rates

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Registry is one immutable version of the whole rate configuration.
// The fare engine prices every quote against a single Registry pointer, so
// resolution is a pure function of (request, version).
type Registry struct {
	Version int64

	VehicleClasses map[VehicleClassID]VehicleClass
	HolidayRules   map[int64]HolidayRule
	RouteRates     map[int64]RouteRate
	Matrix         map[MatrixKey]AirportRegionRate
	Mileage        MileageTable
	Airports       []string
	Regions        []string
}

func NewRegistry() *Registry {
	return &Registry{
		VehicleClasses: make(map[VehicleClassID]VehicleClass),
		HolidayRules:   make(map[int64]HolidayRule),
		RouteRates:     make(map[int64]RouteRate),
		Matrix:         make(map[MatrixKey]AirportRegionRate),
		Mileage: MileageTable{
			NightSurchargeMultiplier: decimal.NewFromInt(1),
		},
	}
}

// clone deep-copies the registry so a writer can mutate freely while
// readers keep the previous version.
func (r *Registry) clone() *Registry {
	next := &Registry{
		Version:        r.Version,
		VehicleClasses: make(map[VehicleClassID]VehicleClass, len(r.VehicleClasses)),
		HolidayRules:   make(map[int64]HolidayRule, len(r.HolidayRules)),
		RouteRates:     make(map[int64]RouteRate, len(r.RouteRates)),
		Matrix:         make(map[MatrixKey]AirportRegionRate, len(r.Matrix)),
		Mileage:        r.Mileage,
		Airports:       append([]string(nil), r.Airports...),
		Regions:        append([]string(nil), r.Regions...),
	}
	for id, vc := range r.VehicleClasses {
		next.VehicleClasses[id] = vc
	}
	for id, hr := range r.HolidayRules {
		next.HolidayRules[id] = hr
	}
	for id, rr := range r.RouteRates {
		next.RouteRates[id] = rr
	}
	for key, cell := range r.Matrix {
		prices := make(map[VehicleClassID]int64, len(cell.Prices))
		for cid, p := range cell.Prices {
			prices[cid] = p
		}
		cell.Prices = prices
		next.Matrix[key] = cell
	}
	return next
}

// Class returns the vehicle class for id.
func (r *Registry) Class(id VehicleClassID) (VehicleClass, bool) {
	vc, ok := r.VehicleClasses[id]
	return vc, ok
}

// ActiveRoute finds the active fixed-route row exactly matching the
// directional (start, end) pair.
func (r *Registry) ActiveRoute(start, end string) (RouteRate, bool) {
	for _, rr := range r.RouteRates {
		if rr.Active && rr.Start == start && rr.End == end {
			return rr, true
		}
	}
	return RouteRate{}, false
}

// Cell returns the matrix row for (airport, region).
func (r *Registry) Cell(airport, region string) (AirportRegionRate, bool) {
	cell, ok := r.Matrix[MatrixKey{Airport: airport, Region: region}]
	return cell, ok
}

// HasAirport reports whether name is a registered airport.
func (r *Registry) HasAirport(name string) bool {
	return containsName(r.Airports, name)
}

// HasRegion reports whether name is a registered region.
func (r *Registry) HasRegion(name string) bool {
	return containsName(r.Regions, name)
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// MatrixRows returns the matrix sorted by (airport, region) for stable
// listing in the admin screens.
func (r *Registry) MatrixRows() []AirportRegionRate {
	rows := make([]AirportRegionRate, 0, len(r.Matrix))
	for _, cell := range r.Matrix {
		rows = append(rows, cell)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Airport != rows[j].Airport {
			return rows[i].Airport < rows[j].Airport
		}
		return rows[i].Region < rows[j].Region
	})
	return rows
}
