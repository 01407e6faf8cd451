// README: Rate admin gateway. The only mutation surface; validates, cascades, bumps the version and swaps the snapshot.
package rates

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service serializes all registry writes and hands out immutable snapshots
// to readers. Cascades run inside the same commit as the triggering write,
// so no snapshot ever has a hole in the matrix.
type Service struct {
	mu      sync.RWMutex
	current *Registry
	store   *Store
	log     *zap.Logger
	now     func() time.Time
}

// NewService creates a gateway over an empty registry. Pass a nil store for
// in-memory operation (tests); pass nil log to discard logs.
func NewService(store *Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		current: NewRegistry(),
		store:   store,
		log:     log,
		now:     time.Now,
	}
}

// LoadFromStore replaces the in-memory registry with the persisted one.
// Called once at boot, before the HTTP server starts.
func (s *Service) LoadFromStore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	reg, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return err
	}
	repairMatrix(reg)
	s.mu.Lock()
	s.current = reg
	s.mu.Unlock()
	s.log.Info("registry loaded", zap.Int64("version", reg.Version))
	return nil
}

// Snapshot returns the current immutable registry. In-flight quotes keep
// whatever pointer they took, unaffected by later writes.
func (s *Service) Snapshot() *Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Service) Version() int64 {
	return s.Snapshot().Version
}

// WriteOpts accompany every mutation. ExpectedVersion 0 skips the
// optimistic version check.
type WriteOpts struct {
	ExpectedVersion int64
	ModifiedBy      string
}

// commit runs one validated mutation against a clone of the current
// registry, persists it, then swaps the snapshot pointer.
func (s *Service) commit(ctx context.Context, opts WriteOpts, op string, mutate func(r *Registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opts.ExpectedVersion != 0 && opts.ExpectedVersion != s.current.Version {
		return &ConflictError{Expected: opts.ExpectedVersion, Actual: s.current.Version}
	}

	next := s.current.clone()
	if err := mutate(next); err != nil {
		return err
	}
	next.Version = s.current.Version + 1

	if s.store != nil {
		if err := s.store.SaveRegistry(ctx, next); err != nil {
			return err
		}
	}
	s.current = next
	s.log.Info("registry updated", zap.String("op", op), zap.Int64("version", next.Version))
	return nil
}

func (s *Service) stamp(opts WriteOpts) (time.Time, string) {
	return s.now(), opts.ModifiedBy
}

// UpsertVehicleClass creates the class when ID is zero, otherwise replaces
// the existing one. Unknown non-zero IDs are rejected.
func (s *Service) UpsertVehicleClass(ctx context.Context, vc VehicleClass, opts WriteOpts) (VehicleClass, error) {
	if err := validateVehicleClass(vc); err != nil {
		return VehicleClass{}, err
	}
	err := s.commit(ctx, opts, "upsert_vehicle_class", func(r *Registry) error {
		if vc.ID == 0 {
			vc.ID = nextClassID(r)
		} else if _, ok := r.VehicleClasses[vc.ID]; !ok {
			return notFound("vehicle class", vc.ID)
		}
		vc.LastModifiedAt, vc.ModifiedBy = s.stamp(opts)
		r.VehicleClasses[vc.ID] = vc
		return nil
	})
	if err != nil {
		return VehicleClass{}, err
	}
	return vc, nil
}

// DeleteVehicleClass hard-deletes the class and removes its column from
// every matrix cell. Prefer deactivation for classes still in use.
func (s *Service) DeleteVehicleClass(ctx context.Context, id VehicleClassID, opts WriteOpts) error {
	return s.commit(ctx, opts, "delete_vehicle_class", func(r *Registry) error {
		if _, ok := r.VehicleClasses[id]; !ok {
			return notFound("vehicle class", id)
		}
		delete(r.VehicleClasses, id)
		removeClassColumn(r, id)
		return nil
	})
}

func (s *Service) UpsertHolidayRule(ctx context.Context, hr HolidayRule, opts WriteOpts) (HolidayRule, error) {
	if err := validateHolidayRule(hr); err != nil {
		return HolidayRule{}, err
	}
	err := s.commit(ctx, opts, "upsert_holiday_rule", func(r *Registry) error {
		if hr.ID == 0 {
			hr.ID = nextRuleID(r)
		} else if _, ok := r.HolidayRules[hr.ID]; !ok {
			return notFound("holiday rule", hr.ID)
		}
		hr.LastModifiedAt, hr.ModifiedBy = s.stamp(opts)
		r.HolidayRules[hr.ID] = hr
		return nil
	})
	if err != nil {
		return HolidayRule{}, err
	}
	return hr, nil
}

func (s *Service) DeleteHolidayRule(ctx context.Context, id int64, opts WriteOpts) error {
	return s.commit(ctx, opts, "delete_holiday_rule", func(r *Registry) error {
		if _, ok := r.HolidayRules[id]; !ok {
			return notFound("holiday rule", id)
		}
		delete(r.HolidayRules, id)
		return nil
	})
}

func (s *Service) UpsertRouteRate(ctx context.Context, rr RouteRate, opts WriteOpts) (RouteRate, error) {
	if err := validateRouteRate(rr); err != nil {
		return RouteRate{}, err
	}
	err := s.commit(ctx, opts, "upsert_route_rate", func(r *Registry) error {
		if rr.ID == 0 {
			rr.ID = nextRouteID(r)
		} else if _, ok := r.RouteRates[rr.ID]; !ok {
			return notFound("route rate", rr.ID)
		}
		if rr.Active {
			for _, other := range r.RouteRates {
				if other.ID != rr.ID && other.Active && other.Start == rr.Start && other.End == rr.End {
					return invalidf("route", "active route %s → %s already exists", rr.Start, rr.End)
				}
			}
		}
		rr.LastModifiedAt, rr.ModifiedBy = s.stamp(opts)
		r.RouteRates[rr.ID] = rr
		return nil
	})
	if err != nil {
		return RouteRate{}, err
	}
	return rr, nil
}

func (s *Service) DeleteRouteRate(ctx context.Context, id int64, opts WriteOpts) error {
	return s.commit(ctx, opts, "delete_route_rate", func(r *Registry) error {
		if _, ok := r.RouteRates[id]; !ok {
			return notFound("route rate", id)
		}
		delete(r.RouteRates, id)
		return nil
	})
}

// UpsertAirportRegionRate replaces the prices of one existing matrix cell.
// Rows are created and deleted only by airport/region cascades, never here.
func (s *Service) UpsertAirportRegionRate(ctx context.Context, cell AirportRegionRate, opts WriteOpts) error {
	if err := validateMatrixCell(cell); err != nil {
		return err
	}
	return s.commit(ctx, opts, "upsert_matrix_cell", func(r *Registry) error {
		if !r.HasAirport(cell.Airport) {
			return notFound("airport", cell.Airport)
		}
		if !r.HasRegion(cell.Region) {
			return notFound("region", cell.Region)
		}
		for cid := range cell.Prices {
			if _, ok := r.VehicleClasses[cid]; !ok {
				return notFound("vehicle class", cid)
			}
		}
		if cell.Prices == nil {
			cell.Prices = make(map[VehicleClassID]int64)
		}
		cell.LastModifiedAt, cell.ModifiedBy = s.stamp(opts)
		r.Matrix[cell.Key()] = cell
		return nil
	})
}

func (s *Service) UpdateMileageTable(ctx context.Context, mt MileageTable, opts WriteOpts) error {
	if err := validateMileageTable(mt); err != nil {
		return err
	}
	return s.commit(ctx, opts, "update_mileage_table", func(r *Registry) error {
		mt.LastModifiedAt, mt.ModifiedBy = s.stamp(opts)
		r.Mileage = mt
		return nil
	})
}

func (s *Service) AddAirport(ctx context.Context, name string, opts WriteOpts) error {
	if name == "" {
		return invalidf("airport", "name is required")
	}
	return s.commit(ctx, opts, "add_airport", func(r *Registry) error {
		if r.HasAirport(name) {
			return invalidf("airport", "%s already exists", name)
		}
		addAirport(r, name)
		return nil
	})
}

func (s *Service) DeleteAirport(ctx context.Context, name string, opts WriteOpts) error {
	return s.commit(ctx, opts, "delete_airport", func(r *Registry) error {
		if !r.HasAirport(name) {
			return notFound("airport", name)
		}
		if routeReferences(r, name) {
			return invalidf("airport", "%s is referenced by an active route", name)
		}
		deleteAirport(r, name)
		return nil
	})
}

func (s *Service) AddRegion(ctx context.Context, name string, opts WriteOpts) error {
	if name == "" {
		return invalidf("region", "name is required")
	}
	return s.commit(ctx, opts, "add_region", func(r *Registry) error {
		if r.HasRegion(name) {
			return invalidf("region", "%s already exists", name)
		}
		addRegion(r, name)
		return nil
	})
}

func (s *Service) DeleteRegion(ctx context.Context, name string, opts WriteOpts) error {
	return s.commit(ctx, opts, "delete_region", func(r *Registry) error {
		if !r.HasRegion(name) {
			return notFound("region", name)
		}
		if routeReferences(r, name) {
			return invalidf("region", "%s is referenced by an active route", name)
		}
		deleteRegion(r, name)
		return nil
	})
}

// Read operations for the admin screens. All of them work on one snapshot.

func (s *Service) ListVehicleClasses() []VehicleClass {
	r := s.Snapshot()
	out := make([]VehicleClass, 0, len(r.VehicleClasses))
	for _, vc := range r.VehicleClasses {
		out = append(out, vc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) ListHolidayRules() []HolidayRule {
	r := s.Snapshot()
	out := make([]HolidayRule, 0, len(r.HolidayRules))
	for _, hr := range r.HolidayRules {
		out = append(out, hr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) ListRouteRates() []RouteRate {
	r := s.Snapshot()
	out := make([]RouteRate, 0, len(r.RouteRates))
	for _, rr := range r.RouteRates {
		out = append(out, rr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) Matrix() []AirportRegionRate {
	return s.Snapshot().MatrixRows()
}

func (s *Service) Airports() []string {
	return append([]string(nil), s.Snapshot().Airports...)
}

func (s *Service) Regions() []string {
	return append([]string(nil), s.Snapshot().Regions...)
}

func (s *Service) Mileage() MileageTable {
	return s.Snapshot().Mileage
}

func nextClassID(r *Registry) VehicleClassID {
	var max VehicleClassID
	for id := range r.VehicleClasses {
		if id > max {
			max = id
		}
	}
	return max + 1
}

func nextRuleID(r *Registry) int64 {
	var max int64
	for id := range r.HolidayRules {
		if id > max {
			max = id
		}
	}
	return max + 1
}

func nextRouteID(r *Registry) int64 {
	var max int64
	for id := range r.RouteRates {
		if id > max {
			max = id
		}
	}
	return max + 1
}

var one = decimal.NewFromInt(1)

func validateVehicleClass(vc VehicleClass) error {
	if vc.Name == "" {
		return invalidf("name", "name is required")
	}
	prices := map[string]int64{
		"dispatchPrice":         vc.DispatchPrice,
		"basePrice":             vc.BasePrice,
		"overDistanceUnitPrice": vc.OverDistanceUnitPrice,
		"nightSurcharge":        vc.NightSurcharge,
		"modelSurcharge":        vc.ModelSurcharge,
		"holidaySurchargeFlat":  vc.HolidaySurchargeFlat,
		"offPeakDiscount":       vc.OffPeakDiscount,
		"signagePrice":          vc.SignagePrice,
		"extraStopPrice":        vc.ExtraStopPrice,
		"remoteAreaPrice":       vc.RemoteAreaPrice,
		"crossDistrictPrice":    vc.CrossDistrictPrice,
		"seatInfant.unitPrice":  vc.SeatInfant.UnitPrice,
		"seatChild.unitPrice":   vc.SeatChild.UnitPrice,
		"seatBooster.unitPrice": vc.SeatBooster.UnitPrice,
	}
	for field, p := range prices {
		if p < 0 {
			return invalidf(field, "must not be negative")
		}
	}
	if vc.BaseDistanceKm < 0 {
		return invalidf("baseDistanceKm", "must not be negative")
	}
	for field, n := range map[string]int{
		"seats":               vc.Seats,
		"maxPassengers":       vc.MaxPassengers,
		"maxLuggage":          vc.MaxLuggage,
		"quantity":            vc.Quantity,
		"seatInfant.maxCount": vc.SeatInfant.MaxCount,
		"seatChild.maxCount":  vc.SeatChild.MaxCount,
		"seatBooster.maxCount": vc.SeatBooster.MaxCount,
	} {
		if n < 0 {
			return invalidf(field, "must not be negative")
		}
	}
	return nil
}

func validateHolidayRule(hr HolidayRule) error {
	if hr.Name == "" {
		return invalidf("name", "name is required")
	}
	if hr.Start.After(hr.End) {
		return invalidf("dateRange", "start must not be after end")
	}
	switch hr.Kind {
	case SurchargeFlat:
		if hr.Value.IsNegative() {
			return invalidf("value", "flat surcharge must not be negative")
		}
	case SurchargeMultiplier:
		if hr.Value.LessThan(one) {
			return invalidf("value", "multiplier must be at least 1")
		}
	default:
		return invalidf("kind", "must be flat or multiplier")
	}
	return nil
}

func validateRouteRate(rr RouteRate) error {
	if rr.Name == "" {
		return invalidf("name", "name is required")
	}
	if rr.Start == "" || rr.End == "" {
		return invalidf("route", "start and end are required")
	}
	if rr.Price < 0 {
		return invalidf("price", "must not be negative")
	}
	return nil
}

func validateMatrixCell(cell AirportRegionRate) error {
	if cell.Airport == "" || cell.Region == "" {
		return invalidf("key", "airport and region are required")
	}
	if cell.RemoteSurcharge < 0 {
		return invalidf("remoteSurcharge", "must not be negative")
	}
	for cid, p := range cell.Prices {
		if p < 0 {
			return invalidf("prices", "price for class %d must not be negative", cid)
		}
	}
	return nil
}

func validateMileageTable(mt MileageTable) error {
	if mt.BasePrice < 0 || mt.PerKmPrice < 0 {
		return invalidf("price", "must not be negative")
	}
	if mt.BaseDistanceKm < 0 {
		return invalidf("baseDistanceKm", "must not be negative")
	}
	if mt.NightSurchargeMultiplier.LessThan(one) {
		return invalidf("nightSurchargeMultiplier", "must be at least 1")
	}
	return nil
}
