package attendance

import (
	"context"
	"fmt"
	"math/rand"
)

// maxIDAttempts bounds the random search for a free attendance ID.
const maxIDAttempts = 100

// NewAttendanceID draws random "A"+3-digit IDs until one is free, giving up
// after maxIDAttempts. The namespace holds 1000 values, so exhaustion only
// happens when the table is nearly full.
func NewAttendanceID(ctx context.Context, exists func(ctx context.Context, id string) (bool, error)) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := fmt.Sprintf("A%03d", rand.Intn(1000))
		taken, err := exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free attendance ID after %d attempts", maxIDAttempts)
}

// NewAttendanceIDBatch draws n distinct free IDs in one pass. Writes that
// fan out concurrently must draw their IDs here first: the check-then-insert
// in NewAttendanceID is not safe to run from parallel goroutines, which can
// draw the same free ID and collide on the primary key.
func NewAttendanceIDBatch(ctx context.Context, n int, exists func(ctx context.Context, id string) (bool, error)) ([]string, error) {
	drawn := make(map[string]bool, n)
	out := make([]string, 0, n)
	for attempts := 0; len(out) < n; attempts++ {
		if attempts >= maxIDAttempts+n {
			return nil, fmt.Errorf("no %d free attendance IDs after %d attempts", n, attempts)
		}
		id := fmt.Sprintf("A%03d", rand.Intn(1000))
		if drawn[id] {
			continue
		}
		taken, err := exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}
		drawn[id] = true
		out = append(out, id)
	}
	return out, nil
}
