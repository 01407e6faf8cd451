package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// DistanceService resolves driving distance through the Google Maps API.
// It is the external distance collaborator: the fare engine only ever sees
// the resulting kilometres.
type DistanceService struct {
	client *maps.Client
}

// NewDistanceService creates a DistanceService with the given API key.
func NewDistanceService(apiKey string) (*DistanceService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &DistanceService{client: client}, nil
}

// DistanceKm returns the driving distance in kilometres from origin to
// destination. Results are biased to Taiwan.
func (s *DistanceService) DistanceKm(ctx context.Context, origin, destination string) (float64, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
		Language:    "zh-TW",
		Region:      "TW",
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}

	var meters int
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
	}
	return float64(meters) / 1000.0, nil
}
