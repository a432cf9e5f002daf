package postgresadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemClock reads the wall clock in UTC; election windows are stored in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator issues the random v4 identifiers used for every row key.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
