// README: Rate registry persistence backed by PostgreSQL.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store writes one full registry version per commit. The configuration is
// small (a few hundred rows at most), so each save rewrites every record
// set inside a single transaction; cascades can never be half-persisted.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) SaveRegistry(ctx context.Context, r *Registry) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tables := []string{"vehicle_classes", "holiday_rules", "route_rates", "airport_region_rates", "airports", "regions"}
	for _, table := range tables {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	for _, vc := range r.VehicleClasses {
		_, err := tx.Exec(ctx, `
			INSERT INTO vehicle_classes (
				id, name, seats, max_passengers, max_luggage, quantity,
				dispatch_price, base_price, base_distance_km, over_distance_unit_price,
				night_surcharge, model_surcharge, holiday_surcharge_flat, off_peak_discount,
				seat_infant_price, seat_infant_max, seat_child_price, seat_child_max,
				seat_booster_price, seat_booster_max,
				signage_price, extra_stop_price, remote_area_price, cross_district_price,
				active, last_modified_at, modified_by
			) VALUES (
				$1, $2, $3, $4, $5, $6,
				$7, $8, $9, $10,
				$11, $12, $13, $14,
				$15, $16, $17, $18,
				$19, $20,
				$21, $22, $23, $24,
				$25, $26, $27
			)`,
			int64(vc.ID), vc.Name, vc.Seats, vc.MaxPassengers, vc.MaxLuggage, vc.Quantity,
			vc.DispatchPrice, vc.BasePrice, vc.BaseDistanceKm, vc.OverDistanceUnitPrice,
			vc.NightSurcharge, vc.ModelSurcharge, vc.HolidaySurchargeFlat, vc.OffPeakDiscount,
			vc.SeatInfant.UnitPrice, vc.SeatInfant.MaxCount, vc.SeatChild.UnitPrice, vc.SeatChild.MaxCount,
			vc.SeatBooster.UnitPrice, vc.SeatBooster.MaxCount,
			vc.SignagePrice, vc.ExtraStopPrice, vc.RemoteAreaPrice, vc.CrossDistrictPrice,
			vc.Active, vc.LastModifiedAt, vc.ModifiedBy,
		)
		if err != nil {
			return err
		}
	}

	for _, hr := range r.HolidayRules {
		_, err := tx.Exec(ctx, `
			INSERT INTO holiday_rules (id, name, start_date, end_date, kind, value, active, last_modified_at, modified_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			hr.ID, hr.Name, hr.Start, hr.End, string(hr.Kind), hr.Value.String(), hr.Active, hr.LastModifiedAt, hr.ModifiedBy,
		)
		if err != nil {
			return err
		}
	}

	for _, rr := range r.RouteRates {
		_, err := tx.Exec(ctx, `
			INSERT INTO route_rates (id, name, start_location, end_location, price, active, last_modified_at, modified_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rr.ID, rr.Name, rr.Start, rr.End, rr.Price, rr.Active, rr.LastModifiedAt, rr.ModifiedBy,
		)
		if err != nil {
			return err
		}
	}

	for _, cell := range r.Matrix {
		prices, err := json.Marshal(cell.Prices)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO airport_region_rates (airport, region, prices, remote_surcharge, active, last_modified_at, modified_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			cell.Airport, cell.Region, prices, cell.RemoteSurcharge, cell.Active, cell.LastModifiedAt, cell.ModifiedBy,
		)
		if err != nil {
			return err
		}
	}

	for i, name := range r.Airports {
		if _, err := tx.Exec(ctx, `INSERT INTO airports (name, position) VALUES ($1, $2)`, name, i); err != nil {
			return err
		}
	}
	for i, name := range r.Regions {
		if _, err := tx.Exec(ctx, `INSERT INTO regions (name, position) VALUES ($1, $2)`, name, i); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO mileage_table (id, base_price, base_distance_km, per_km_price, night_surcharge_multiplier, last_modified_at, modified_by)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			base_price = EXCLUDED.base_price,
			base_distance_km = EXCLUDED.base_distance_km,
			per_km_price = EXCLUDED.per_km_price,
			night_surcharge_multiplier = EXCLUDED.night_surcharge_multiplier,
			last_modified_at = EXCLUDED.last_modified_at,
			modified_by = EXCLUDED.modified_by`,
		r.Mileage.BasePrice, r.Mileage.BaseDistanceKm, r.Mileage.PerKmPrice,
		r.Mileage.NightSurchargeMultiplier.String(), r.Mileage.LastModifiedAt, r.Mileage.ModifiedBy,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rate_registry (id, version, saved_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version, saved_at = EXCLUDED.saved_at`,
		r.Version, time.Now(),
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) LoadRegistry(ctx context.Context) (*Registry, error) {
	r := NewRegistry()

	row := s.db.QueryRow(ctx, `SELECT version FROM rate_registry WHERE id = 1`)
	if err := row.Scan(&r.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, nil
		}
		return nil, err
	}

	if err := s.loadVehicleClasses(ctx, r); err != nil {
		return nil, err
	}
	if err := s.loadHolidayRules(ctx, r); err != nil {
		return nil, err
	}
	if err := s.loadRouteRates(ctx, r); err != nil {
		return nil, err
	}
	if err := s.loadMatrix(ctx, r); err != nil {
		return nil, err
	}
	if err := s.loadNames(ctx, "airports", &r.Airports); err != nil {
		return nil, err
	}
	if err := s.loadNames(ctx, "regions", &r.Regions); err != nil {
		return nil, err
	}
	if err := s.loadMileage(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) loadVehicleClasses(ctx context.Context, r *Registry) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, seats, max_passengers, max_luggage, quantity,
		       dispatch_price, base_price, base_distance_km, over_distance_unit_price,
		       night_surcharge, model_surcharge, holiday_surcharge_flat, off_peak_discount,
		       seat_infant_price, seat_infant_max, seat_child_price, seat_child_max,
		       seat_booster_price, seat_booster_max,
		       signage_price, extra_stop_price, remote_area_price, cross_district_price,
		       active, last_modified_at, modified_by
		FROM vehicle_classes`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var vc VehicleClass
		var id int64
		err := rows.Scan(
			&id, &vc.Name, &vc.Seats, &vc.MaxPassengers, &vc.MaxLuggage, &vc.Quantity,
			&vc.DispatchPrice, &vc.BasePrice, &vc.BaseDistanceKm, &vc.OverDistanceUnitPrice,
			&vc.NightSurcharge, &vc.ModelSurcharge, &vc.HolidaySurchargeFlat, &vc.OffPeakDiscount,
			&vc.SeatInfant.UnitPrice, &vc.SeatInfant.MaxCount, &vc.SeatChild.UnitPrice, &vc.SeatChild.MaxCount,
			&vc.SeatBooster.UnitPrice, &vc.SeatBooster.MaxCount,
			&vc.SignagePrice, &vc.ExtraStopPrice, &vc.RemoteAreaPrice, &vc.CrossDistrictPrice,
			&vc.Active, &vc.LastModifiedAt, &vc.ModifiedBy,
		)
		if err != nil {
			return err
		}
		vc.ID = VehicleClassID(id)
		r.VehicleClasses[vc.ID] = vc
	}
	return rows.Err()
}

func (s *Store) loadHolidayRules(ctx context.Context, r *Registry) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, start_date, end_date, kind, value, active, last_modified_at, modified_by
		FROM holiday_rules`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var hr HolidayRule
		var kind, value string
		if err := rows.Scan(&hr.ID, &hr.Name, &hr.Start, &hr.End, &kind, &value, &hr.Active, &hr.LastModifiedAt, &hr.ModifiedBy); err != nil {
			return err
		}
		hr.Kind = SurchargeKind(kind)
		hr.Value, err = decimal.NewFromString(value)
		if err != nil {
			return err
		}
		r.HolidayRules[hr.ID] = hr
	}
	return rows.Err()
}

func (s *Store) loadRouteRates(ctx context.Context, r *Registry) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, start_location, end_location, price, active, last_modified_at, modified_by
		FROM route_rates`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rr RouteRate
		if err := rows.Scan(&rr.ID, &rr.Name, &rr.Start, &rr.End, &rr.Price, &rr.Active, &rr.LastModifiedAt, &rr.ModifiedBy); err != nil {
			return err
		}
		r.RouteRates[rr.ID] = rr
	}
	return rows.Err()
}

func (s *Store) loadMatrix(ctx context.Context, r *Registry) error {
	rows, err := s.db.Query(ctx, `
		SELECT airport, region, prices, remote_surcharge, active, last_modified_at, modified_by
		FROM airport_region_rates`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cell AirportRegionRate
		var prices []byte
		if err := rows.Scan(&cell.Airport, &cell.Region, &prices, &cell.RemoteSurcharge, &cell.Active, &cell.LastModifiedAt, &cell.ModifiedBy); err != nil {
			return err
		}
		cell.Prices = make(map[VehicleClassID]int64)
		if len(prices) > 0 {
			if err := json.Unmarshal(prices, &cell.Prices); err != nil {
				return err
			}
		}
		r.Matrix[cell.Key()] = cell
	}
	return rows.Err()
}

func (s *Store) loadNames(ctx context.Context, table string, dst *[]string) error {
	rows, err := s.db.Query(ctx, `SELECT name FROM `+table+` ORDER BY position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		*dst = append(*dst, name)
	}
	return rows.Err()
}

func (s *Store) loadMileage(ctx context.Context, r *Registry) error {
	row := s.db.QueryRow(ctx, `
		SELECT base_price, base_distance_km, per_km_price, night_surcharge_multiplier, last_modified_at, modified_by
		FROM mileage_table WHERE id = 1`)

	var mt MileageTable
	var mult string
	err := row.Scan(&mt.BasePrice, &mt.BaseDistanceKm, &mt.PerKmPrice, &mult, &mt.LastModifiedAt, &mt.ModifiedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	mt.NightSurchargeMultiplier, err = decimal.NewFromString(mult)
	if err != nil {
		return err
	}
	r.Mileage = mt
	return nil
}
