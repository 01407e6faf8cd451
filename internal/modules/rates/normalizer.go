// README: Matrix normalizer. Keeps the airport x region matrix complete: one row per pair, no orphans.
package rates

// Repair returns a copy of r in which every (airport, region) pair has
// exactly one matrix row: orphaned rows are dropped and missing rows are
// inserted with an empty price map. Repair is idempotent, so it is safe to
// run after a partial failure mid-cascade.
func Repair(r *Registry) *Registry {
	next := r.clone()
	repairMatrix(next)
	return next
}

// repairMatrix normalizes the matrix of a writable registry in place.
func repairMatrix(r *Registry) {
	for key := range r.Matrix {
		if !r.HasAirport(key.Airport) || !r.HasRegion(key.Region) {
			delete(r.Matrix, key)
		}
	}
	for _, airport := range r.Airports {
		for _, region := range r.Regions {
			key := MatrixKey{Airport: airport, Region: region}
			if _, ok := r.Matrix[key]; ok {
				continue
			}
			r.Matrix[key] = AirportRegionRate{
				Airport: airport,
				Region:  region,
				Prices:  make(map[VehicleClassID]int64),
				Active:  true,
			}
		}
	}
}

func addAirport(r *Registry, name string) {
	r.Airports = append(r.Airports, name)
	repairMatrix(r)
}

func addRegion(r *Registry, name string) {
	r.Regions = append(r.Regions, name)
	repairMatrix(r)
}

func deleteAirport(r *Registry, name string) {
	r.Airports = removeName(r.Airports, name)
	repairMatrix(r)
}

func deleteRegion(r *Registry, name string) {
	r.Regions = removeName(r.Regions, name)
	repairMatrix(r)
}

// removeClassColumn drops a vehicle class from every matrix cell's price map.
func removeClassColumn(r *Registry, id VehicleClassID) {
	for key, cell := range r.Matrix {
		if _, ok := cell.Prices[id]; !ok {
			continue
		}
		delete(cell.Prices, id)
		r.Matrix[key] = cell
	}
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

// routeReferences reports whether any active fixed route starts or ends at
// the named location. Airport and region deletes are refused while such a
// route exists.
func routeReferences(r *Registry, name string) bool {
	for _, rr := range r.RouteRates {
		if rr.Active && (rr.Start == name || rr.End == name) {
			return true
		}
	}
	return false
}
