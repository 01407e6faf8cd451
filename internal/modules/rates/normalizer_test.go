// README: Matrix normalizer tests (completeness + idempotence).
package rates

import (
	"testing"
)

func matrixIsComplete(t *testing.T, r *Registry) {
	t.Helper()
	want := len(r.Airports) * len(r.Regions)
	if len(r.Matrix) != want {
		t.Fatalf("matrix has %d rows, want %d", len(r.Matrix), want)
	}
	for _, airport := range r.Airports {
		for _, region := range r.Regions {
			if _, ok := r.Cell(airport, region); !ok {
				t.Fatalf("missing matrix row for (%s, %s)", airport, region)
			}
		}
	}
}

func TestRepairFillsMissingRows(t *testing.T) {
	r := NewRegistry()
	r.Airports = []string{"桃園國際機場", "台北松山機場"}
	r.Regions = []string{"台北市大安區", "新北市板橋區", "桃園市中壢區"}

	repaired := Repair(r)
	matrixIsComplete(t, repaired)

	// inserted rows start empty
	cell, _ := repaired.Cell("桃園國際機場", "台北市大安區")
	if len(cell.Prices) != 0 || cell.RemoteSurcharge != 0 {
		t.Fatalf("new rows must have empty prices and zero surcharge, got %+v", cell)
	}
	if !cell.Active {
		t.Fatal("new rows must be active")
	}

	// the input registry is untouched
	if len(r.Matrix) != 0 {
		t.Fatalf("Repair mutated its input: %d rows", len(r.Matrix))
	}
}

func TestRepairDropsOrphanRows(t *testing.T) {
	r := NewRegistry()
	r.Airports = []string{"桃園國際機場"}
	r.Regions = []string{"台北市大安區"}
	// simulate a partial cascade: one orphan row left behind after an
	// airport delete
	r.Matrix[MatrixKey{Airport: "高雄小港機場", Region: "台北市大安區"}] = AirportRegionRate{
		Airport: "高雄小港機場", Region: "台北市大安區", Prices: map[VehicleClassID]int64{},
	}

	repaired := Repair(r)
	matrixIsComplete(t, repaired)
	if _, ok := repaired.Cell("高雄小港機場", "台北市大安區"); ok {
		t.Fatal("orphan row survived Repair")
	}
}

func TestRepairIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Airports = []string{"桃園國際機場", "台北松山機場"}
	r.Regions = []string{"台北市大安區", "新北市板橋區"}
	r.Matrix[MatrixKey{Airport: "桃園國際機場", Region: "台北市大安區"}] = AirportRegionRate{
		Airport: "桃園國際機場", Region: "台北市大安區",
		Prices:          map[VehicleClassID]int64{1: 1100},
		RemoteSurcharge: 200,
		Active:          true,
	}

	once := Repair(r)
	twice := Repair(once)

	matrixIsComplete(t, once)
	matrixIsComplete(t, twice)
	if len(once.Matrix) != len(twice.Matrix) {
		t.Fatalf("second Repair changed row count: %d vs %d", len(once.Matrix), len(twice.Matrix))
	}
	// configured prices survive both passes
	cell, _ := twice.Cell("桃園國際機場", "台北市大安區")
	if cell.Prices[1] != 1100 || cell.RemoteSurcharge != 200 {
		t.Fatalf("Repair altered a configured cell: %+v", cell)
	}
}

func TestRemoveClassColumn(t *testing.T) {
	r := NewRegistry()
	r.Airports = []string{"桃園國際機場"}
	r.Regions = []string{"台北市大安區", "新北市板橋區"}
	repairMatrix(r)
	for key, cell := range r.Matrix {
		cell.Prices[1] = 1000
		cell.Prices[2] = 1500
		r.Matrix[key] = cell
	}

	removeClassColumn(r, 1)

	for key, cell := range r.Matrix {
		if _, ok := cell.Prices[1]; ok {
			t.Fatalf("class 1 still priced in %v", key)
		}
		if cell.Prices[2] != 1500 {
			t.Fatalf("class 2 price lost in %v", key)
		}
	}
}
