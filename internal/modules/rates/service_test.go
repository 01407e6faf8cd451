// README: Rate admin gateway tests (validation, cascades, versioning, snapshot isolation).
package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(nil, nil)
	ctx := context.Background()
	for _, a := range []string{"桃園國際機場", "台北松山機場"} {
		if err := svc.AddAirport(ctx, a, WriteOpts{}); err != nil {
			t.Fatalf("AddAirport(%s): %v", a, err)
		}
	}
	for _, rg := range []string{"台北市大安區", "新北市板橋區"} {
		if err := svc.AddRegion(ctx, rg, WriteOpts{}); err != nil {
			t.Fatalf("AddRegion(%s): %v", rg, err)
		}
	}
	return svc
}

func activeClass(name string) VehicleClass {
	return VehicleClass{
		Name:                  name,
		Seats:                 4,
		MaxPassengers:         3,
		MaxLuggage:            3,
		BasePrice:             1200,
		BaseDistanceKm:        20,
		OverDistanceUnitPrice: 40,
		Active:                true,
	}
}

func TestMatrixCompletenessAcrossCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	matrixIsComplete(t, svc.Snapshot())

	if err := svc.AddAirport(ctx, "高雄小港機場", WriteOpts{}); err != nil {
		t.Fatal(err)
	}
	matrixIsComplete(t, svc.Snapshot())

	if err := svc.AddRegion(ctx, "桃園市中壢區", WriteOpts{}); err != nil {
		t.Fatal(err)
	}
	matrixIsComplete(t, svc.Snapshot())

	if err := svc.DeleteAirport(ctx, "台北松山機場", WriteOpts{}); err != nil {
		t.Fatal(err)
	}
	matrixIsComplete(t, svc.Snapshot())
	for key := range svc.Snapshot().Matrix {
		if key.Airport == "台北松山機場" {
			t.Fatalf("deleted airport still referenced by %v", key)
		}
	}

	if err := svc.DeleteRegion(ctx, "新北市板橋區", WriteOpts{}); err != nil {
		t.Fatal(err)
	}
	matrixIsComplete(t, svc.Snapshot())
}

func TestDeleteVehicleClassCascadesColumn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	vc, err := svc.UpsertVehicleClass(ctx, activeClass("經濟型"), WriteOpts{})
	if err != nil {
		t.Fatal(err)
	}
	err = svc.UpsertAirportRegionRate(ctx, AirportRegionRate{
		Airport: "桃園國際機場",
		Region:  "台北市大安區",
		Prices:  map[VehicleClassID]int64{vc.ID: 1000},
		Active:  true,
	}, WriteOpts{})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteVehicleClass(ctx, vc.ID, WriteOpts{}); err != nil {
		t.Fatal(err)
	}
	for key, cell := range svc.Snapshot().Matrix {
		if _, ok := cell.Prices[vc.ID]; ok {
			t.Fatalf("deleted class still priced in %v", key)
		}
	}
}

func TestHolidayRuleValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpsertHolidayRule(ctx, HolidayRule{
		Name:  "春節",
		Start: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		Kind:  SurchargeFlat,
		Value: decimal.NewFromInt(500),
	}, WriteOpts{})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("start > end must be rejected with ValidationError, got %v", err)
	}
	if svc.Version() != 4 { // setup writes only
		t.Fatalf("failed write must not bump the version, at %d", svc.Version())
	}
}

func TestDuplicateActiveRouteRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpsertRouteRate(ctx, RouteRate{
		Name: "機場快線", Start: "台北車站", End: "桃園國際機場", Price: 900, Active: true,
	}, WriteOpts{})
	if err != nil {
		t.Fatal(err)
	}

	// same directional pair: rejected
	_, err = svc.UpsertRouteRate(ctx, RouteRate{
		Name: "重複路線", Start: "台北車站", End: "桃園國際機場", Price: 800, Active: true,
	}, WriteOpts{})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("duplicate active route must be rejected, got %v", err)
	}

	// reverse direction is a distinct row
	if _, err := svc.UpsertRouteRate(ctx, RouteRate{
		Name: "機場快線回程", Start: "桃園國際機場", End: "台北車站", Price: 900, Active: true,
	}, WriteOpts{}); err != nil {
		t.Fatalf("reverse direction must be allowed: %v", err)
	}
}

func TestDeleteAirportRefusedWhileRouteActive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rr, err := svc.UpsertRouteRate(ctx, RouteRate{
		Name: "機場快線", Start: "台北車站", End: "桃園國際機場", Price: 900, Active: true,
	}, WriteOpts{})
	if err != nil {
		t.Fatal(err)
	}

	err = svc.DeleteAirport(ctx, "桃園國際機場", WriteOpts{})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("delete with dependent active route must be refused, got %v", err)
	}

	// deactivate the route, then the delete goes through
	rr.Active = false
	if _, err := svc.UpsertRouteRate(ctx, rr, WriteOpts{}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteAirport(ctx, "桃園國際機場", WriteOpts{}); err != nil {
		t.Fatalf("delete after deactivation: %v", err)
	}
}

func TestVersionConflict(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	stale := svc.Version()
	if err := svc.AddAirport(ctx, "高雄小港機場", WriteOpts{}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.UpsertVehicleClass(ctx, activeClass("經濟型"), WriteOpts{ExpectedVersion: stale})
	var cf *ConflictError
	if !errors.As(err, &cf) {
		t.Fatalf("stale expected version must conflict, got %v", err)
	}
	if cf.Actual != svc.Version() {
		t.Fatalf("conflict reports version %d, registry at %d", cf.Actual, svc.Version())
	}

	// retry against the latest version succeeds
	if _, err := svc.UpsertVehicleClass(ctx, activeClass("經濟型"), WriteOpts{ExpectedVersion: svc.Version()}); err != nil {
		t.Fatalf("retry at latest version: %v", err)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	before := svc.Snapshot()
	rows := len(before.Matrix)

	if err := svc.AddAirport(ctx, "高雄小港機場", WriteOpts{}); err != nil {
		t.Fatal(err)
	}

	if len(before.Matrix) != rows {
		t.Fatal("write mutated a handed-out snapshot")
	}
	if svc.Snapshot().Version != before.Version+1 {
		t.Fatalf("version %d after one write on %d", svc.Snapshot().Version, before.Version)
	}
}

func TestUpsertMatrixCellValidatesReferences(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		cell AirportRegionRate
	}{
		{"unknown airport", AirportRegionRate{Airport: "無名機場", Region: "台北市大安區"}},
		{"unknown region", AirportRegionRate{Airport: "桃園國際機場", Region: "無名區"}},
		{"unknown class", AirportRegionRate{
			Airport: "桃園國際機場", Region: "台北市大安區",
			Prices: map[VehicleClassID]int64{99: 1000},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.UpsertAirportRegionRate(ctx, tc.cell, WriteOpts{})
			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("want NotFoundError, got %v", err)
			}
		})
	}
}

func TestNegativePriceRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	vc := activeClass("經濟型")
	vc.BasePrice = -1
	_, err := svc.UpsertVehicleClass(ctx, vc, WriteOpts{})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("negative price must be rejected, got %v", err)
	}
}
