package hospital

import (
	"context"

	"github.com/aliiexe/AmbuGo/internal/geo"
)

// StoreLocator ranks hospitals in Go over the full located set, keeping
// storage order for equal distances.
type StoreLocator struct {
	hospitals HospitalRepository
}

func NewStoreLocator(hospitals HospitalRepository) *StoreLocator {
	return &StoreLocator{hospitals: hospitals}
}

func (l *StoreLocator) Nearest(ctx context.Context, origin geo.Point, k int) ([]Nearby, error) {
	all, err := l.hospitals.ListLocated(ctx)
	if err != nil {
		return nil, err
	}
	ranked := geo.Nearest(origin, all, (*Hospital).Location, k)
	out := make([]Nearby, len(ranked))
	for i, r := range ranked {
		out[i] = Nearby{Hospital: r.Item, Distance: r.Distance}
	}
	return out, nil
}
