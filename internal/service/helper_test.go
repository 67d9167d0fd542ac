package service

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Zereker/adboard/internal/repo"
)

var fixedNow = time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)

func newStores() *repo.Stores {
	return repo.NewStores(repo.DefaultConfig())
}

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func seededRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func newAuth(t *testing.T, stores *repo.Stores) *AuthService {
	t.Helper()
	svc, err := NewAuthService(AuthConfig{HashIterations: 1000, SessionTimeout: "30m"}, stores)
	require.NoError(t, err)
	return svc
}
