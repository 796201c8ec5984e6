// README: Destination image lookup types and sentinel errors.
package images

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotConfigured = errors.New("image source not configured")
	ErrNotFound      = errors.New("not found")
)

const (
	MinCount = 1
	MaxCount = 10
)

type Query struct {
	Destination string
	Country     string
	Count       int
}

func (q *Query) normalize() error {
	q.Destination = strings.TrimSpace(q.Destination)
	q.Country = strings.TrimSpace(q.Country)
	if q.Destination == "" {
		return fmt.Errorf("%w: destination is required", ErrBadRequest)
	}
	if q.Count < MinCount {
		q.Count = MinCount
	}
	if q.Count > MaxCount {
		q.Count = MaxCount
	}
	return nil
}

// cacheKey is destination|country|count, lowercased.
func (q Query) cacheKey() string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%d", q.Destination, q.Country, q.Count))
}

func (q Query) searchText() string {
	if q.Country == "" {
		return q.Destination
	}
	return q.Destination + " " + q.Country
}

// Source finds image URLs for a destination. An empty result means "try the next source".
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]string, error)
}
