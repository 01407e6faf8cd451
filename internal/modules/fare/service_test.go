package fare

import (
	"context"
	"errors"
	"testing"

	"skyfare/internal/modules/rates"
)

type fixedRegistry struct {
	reg *rates.Registry
}

func (f fixedRegistry) Snapshot() *rates.Registry { return f.reg }

func TestQuoteWithoutCache(t *testing.T) {
	svc := NewService(fixedRegistry{reg: baseRegistry()}, nil, DefaultOptions(), nil)

	bd, err := svc.Quote(context.Background(), TripRequest{
		Origin:         airport(airportTaoyuan),
		Destination:    plain("大安區"),
		VehicleClassID: 1,
		PickupAt:       daytime,
	})
	if err != nil {
		t.Fatal(err)
	}
	if bd.Total.Amount != 1000 || bd.Tier != TierMatrix {
		t.Fatalf("got total %d tier %s, want 1000/matrix", bd.Total.Amount, bd.Tier)
	}
}

func TestQuotePropagatesEngineErrors(t *testing.T) {
	svc := NewService(fixedRegistry{reg: baseRegistry()}, nil, DefaultOptions(), nil)

	_, err := svc.Quote(context.Background(), TripRequest{
		Origin:         airport(airportTaoyuan),
		Destination:    plain("大安區"),
		VehicleClassID: 42,
		PickupAt:       daytime,
	})
	var nf *rates.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestRequestHashIsStable(t *testing.T) {
	req := TripRequest{
		Origin:         airport(airportTaoyuan),
		Destination:    plain("大安區"),
		VehicleClassID: 1,
		PickupAt:       daytime,
	}
	if requestHash(req) != requestHash(req) {
		t.Fatal("hash of identical requests differs")
	}
	other := req
	other.SeatInfant = 1
	if requestHash(req) == requestHash(other) {
		t.Fatal("hash ignores request fields")
	}
}
