// README: Fare resolution engine. Pure function of (request, registry snapshot); tier selection plus fixed-order surcharge composition.
package fare

import (
	"fmt"

	"github.com/shopspring/decimal"

	"skyfare/internal/modules/rates"
	"skyfare/internal/types"
)

// Options carry the deployment knobs the engine needs beyond the registry:
// the night window and the floor the total is clamped to.
type Options struct {
	NightStartMin int
	NightEndMin   int
	MinimumFare   int64
}

func DefaultOptions() Options {
	return Options{NightStartMin: 23 * 60, NightEndMin: 6 * 60}
}

var one = decimal.NewFromInt(1)

// ComputeFare resolves a trip request against one registry snapshot into an
// itemized breakdown. It either returns a complete breakdown or an error,
// never a partial one. Safe for concurrent use; the snapshot is never
// mutated.
func ComputeFare(req TripRequest, reg *rates.Registry, opts Options) (PriceBreakdown, error) {
	class, ok := reg.Class(req.VehicleClassID)
	if !ok || !class.Active {
		return PriceBreakdown{}, &rates.NotFoundError{Kind: "vehicle class", Key: fmt.Sprint(req.VehicleClassID)}
	}
	if err := validateRequest(req, class); err != nil {
		return PriceBreakdown{}, err
	}

	base, tier, baseSource, cell := selectTier(req, reg, class)
	items := []LineItem{{Code: ItemBase, Source: baseSource, Amount: base}}

	// 1. Holiday: overlapping rules never stack, only the single largest
	// contribution applies. The class-level flat competes in the same pick.
	if amount, source := holidaySurcharge(req, reg, class, base); amount > 0 {
		items = append(items, LineItem{Code: ItemHoliday, Source: source, Amount: amount})
	}

	// 2. Night window.
	if inNightWindow(req.PickupAt.Hour()*60+req.PickupAt.Minute(), opts) {
		switch {
		case class.NightSurcharge > 0:
			items = append(items, LineItem{Code: ItemNight, Source: "class", Amount: class.NightSurcharge})
		case tier == TierMileage:
			amount := roundMoney(decimal.NewFromInt(base).Mul(reg.Mileage.NightSurchargeMultiplier.Sub(one)))
			if amount > 0 {
				items = append(items, LineItem{Code: ItemNight, Source: "mileage", Amount: amount})
			}
		}
	}

	// 3. Vehicle model surcharge.
	if class.ModelSurcharge > 0 {
		items = append(items, LineItem{Code: ItemVehicleType, Source: "class", Amount: class.ModelSurcharge})
	}

	// 4. Remote area: the matrix cell's surcharge wins over the class table,
	// never both. Cross-district is always the class flat.
	switch {
	case tier == TierMatrix && cell.RemoteSurcharge > 0:
		items = append(items, LineItem{Code: ItemArea, Source: baseSource, Amount: cell.RemoteSurcharge})
	case req.RemoteArea && class.RemoteAreaPrice > 0:
		items = append(items, LineItem{Code: ItemArea, Source: "class", Amount: class.RemoteAreaPrice})
	}
	if req.CrossDistrict && class.CrossDistrictPrice > 0 {
		items = append(items, LineItem{Code: ItemCrossDistrict, Source: "class", Amount: class.CrossDistrictPrice})
	}

	// 5. Extras.
	if req.Signage && class.SignagePrice > 0 {
		items = append(items, LineItem{Code: ItemSignage, Source: "class", Amount: class.SignagePrice})
	}
	if req.ExtraStops > 0 && class.ExtraStopPrice > 0 {
		items = append(items, LineItem{Code: ItemExtraStop, Source: "class", Amount: int64(req.ExtraStops) * class.ExtraStopPrice})
	}
	if seats := seatCharge(req, class); seats > 0 {
		items = append(items, LineItem{Code: ItemCarSeat, Source: "class", Amount: seats})
	}

	// 6. Off-peak discount.
	if req.OffPeak && class.OffPeakDiscount > 0 {
		items = append(items, LineItem{Code: ItemOffPeak, Source: "class", Amount: -class.OffPeakDiscount})
	}

	// 7. Coupon last; capped so the total never drops below the floor.
	subtotal := sumItems(items)
	if req.Discount != nil {
		discount := discountAmount(*req.Discount, subtotal)
		if limit := subtotal - opts.MinimumFare; discount > limit {
			discount = limit
		}
		if discount > 0 {
			items = append(items, LineItem{Code: ItemCoupon, Source: "coupon", Amount: -discount})
		}
	}

	total := sumItems(items)
	if total < opts.MinimumFare {
		total = opts.MinimumFare
	}
	if total < 0 {
		total = 0
	}

	return PriceBreakdown{
		RegistryVersion: reg.Version,
		Tier:            tier,
		Items:           items,
		Total:           types.TWD(total),
	}, nil
}

// selectTier picks the base price by strict precedence: fixed route, then
// airport x region matrix, then mileage fallback. A matrix cell without an
// entry for the class falls through to mileage.
func selectTier(req TripRequest, reg *rates.Registry, class rates.VehicleClass) (base int64, tier Tier, source string, cell rates.AirportRegionRate) {
	if route, ok := reg.ActiveRoute(req.Origin.Name, req.Destination.Name); ok {
		return route.Price, TierRoute, fmt.Sprintf("route:%d", route.ID), rates.AirportRegionRate{}
	}

	if airport, region, ok := matrixPair(req, reg); ok {
		if c, ok := reg.Cell(airport, region); ok && c.Active {
			if price, ok := c.Prices[class.ID]; ok {
				return price, TierMatrix, fmt.Sprintf("matrix:%s/%s", airport, region), c
			}
		}
	}

	baseKm := reg.Mileage.BaseDistanceKm
	unit := reg.Mileage.PerKmPrice
	if class.BaseDistanceKm > 0 || class.OverDistanceUnitPrice > 0 {
		baseKm = class.BaseDistanceKm
		unit = class.OverDistanceUnitPrice
	}
	base = class.BasePrice
	if reg.Mileage.BasePrice > base {
		base = reg.Mileage.BasePrice
	}
	if over := req.DistanceKm - baseKm; over > 0 {
		base += roundMoney(decimal.NewFromFloat(over).Mul(decimal.NewFromInt(unit)))
	}
	return base, TierMileage, "mileage", rates.AirportRegionRate{}
}

// matrixPair extracts the (airport, region) key when exactly one endpoint
// is an airport and the other resolves to a registered region.
func matrixPair(req TripRequest, reg *rates.Registry) (airport, region string, ok bool) {
	o, d := req.Origin, req.Destination
	switch {
	case o.Kind == EndpointAirport && d.Kind != EndpointAirport:
		airport, region = o.Name, d.Region
	case d.Kind == EndpointAirport && o.Kind != EndpointAirport:
		airport, region = d.Name, o.Region
	default:
		return "", "", false
	}
	if !reg.HasAirport(airport) || !reg.HasRegion(region) {
		return "", "", false
	}
	return airport, region, true
}

func holidaySurcharge(req TripRequest, reg *rates.Registry, class rates.VehicleClass, base int64) (int64, string) {
	var best int64
	var source string
	covered := false
	for _, hr := range reg.HolidayRules {
		if !hr.Active || !hr.Covers(req.PickupAt) {
			continue
		}
		covered = true
		var amount int64
		if hr.Kind == rates.SurchargeMultiplier {
			amount = roundMoney(decimal.NewFromInt(base).Mul(hr.Value.Sub(one)))
		} else {
			amount = roundMoney(hr.Value)
		}
		if amount > best {
			best = amount
			source = fmt.Sprintf("holiday:%d", hr.ID)
		}
	}
	if covered && class.HolidaySurchargeFlat > best {
		best = class.HolidaySurchargeFlat
		source = "class"
	}
	return best, source
}

func seatCharge(req TripRequest, class rates.VehicleClass) int64 {
	return int64(req.SeatInfant)*class.SeatInfant.UnitPrice +
		int64(req.SeatChild)*class.SeatChild.UnitPrice +
		int64(req.SeatBooster)*class.SeatBooster.UnitPrice
}

func discountAmount(d Discount, subtotal int64) int64 {
	if d.Kind == DiscountPercent {
		return roundMoney(decimal.NewFromInt(subtotal).Mul(d.Value).Div(decimal.NewFromInt(100)))
	}
	return roundMoney(d.Value)
}

func validateRequest(req TripRequest, class rates.VehicleClass) error {
	if req.DistanceKm < 0 {
		return &rates.ValidationError{Field: "distanceKm", Reason: "must not be negative"}
	}
	if req.ExtraStops < 0 {
		return &rates.ValidationError{Field: "extraStops", Reason: "must not be negative"}
	}
	seats := []struct {
		field string
		count int
		tier  rates.SeatTier
	}{
		{"seatInfant", req.SeatInfant, class.SeatInfant},
		{"seatChild", req.SeatChild, class.SeatChild},
		{"seatBooster", req.SeatBooster, class.SeatBooster},
	}
	for _, s := range seats {
		if s.count < 0 {
			return &rates.ValidationError{Field: s.field, Reason: "must not be negative"}
		}
		if s.count > s.tier.MaxCount {
			return &rates.ValidationError{Field: s.field, Reason: fmt.Sprintf("at most %d available", s.tier.MaxCount)}
		}
	}
	if class.MaxPassengers > 0 && req.Passengers > class.MaxPassengers {
		return &rates.ValidationError{Field: "passengers", Reason: fmt.Sprintf("class seats at most %d passengers", class.MaxPassengers)}
	}
	if class.MaxLuggage > 0 && req.Luggage > class.MaxLuggage {
		return &rates.ValidationError{Field: "luggage", Reason: fmt.Sprintf("class carries at most %d pieces", class.MaxLuggage)}
	}
	return nil
}

// inNightWindow checks minutes-from-midnight against a window that may wrap
// midnight (23:00-06:00 by default).
func inNightWindow(minute int, opts Options) bool {
	if opts.NightStartMin == opts.NightEndMin {
		return false
	}
	if opts.NightStartMin > opts.NightEndMin {
		return minute >= opts.NightStartMin || minute < opts.NightEndMin
	}
	return minute >= opts.NightStartMin && minute < opts.NightEndMin
}

func sumItems(items []LineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Amount
	}
	return total
}

func roundMoney(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
