//go:build integration

package exportguard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"exclusioncheck/internal/screening/exportguard"
	"exclusioncheck/pkg/testutil/containers"
)

type RedisGuardSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	guard *exportguard.Redis
}

func TestRedisGuardSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisGuardSuite))
}

func (s *RedisGuardSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	guard, err := exportguard.NewRedis(s.redis.Client, exportguard.WithRedisTTL(time.Second))
	s.Require().NoError(err)
	s.guard = guard
}

func (s *RedisGuardSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisGuardSuite) TestAcquireConflictRelease() {
	ctx := context.Background()

	lease, err := s.guard.Acquire(ctx, "session:a", exportguard.KindPDF)
	s.Require().NoError(err)

	kind, err := s.guard.Status(ctx, "session:a")
	s.Require().NoError(err)
	s.Equal(exportguard.KindPDF, kind)

	_, err = s.guard.Acquire(ctx, "session:a", exportguard.KindCSV)
	s.True(exportguard.IsConflict(err))

	s.Require().NoError(s.guard.Release(ctx, lease))
	kind, err = s.guard.Status(ctx, "session:a")
	s.Require().NoError(err)
	s.Equal(exportguard.KindIdle, kind)
}

func (s *RedisGuardSuite) TestExpiredHolderCannotReleaseNewLease() {
	ctx := context.Background()

	stale, err := s.guard.Acquire(ctx, "session:b", exportguard.KindPrint)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		kind, err := s.guard.Status(ctx, "session:b")
		return err == nil && kind == exportguard.KindIdle
	}, 3*time.Second, 50*time.Millisecond)

	fresh, err := s.guard.Acquire(ctx, "session:b", exportguard.KindCSV)
	s.Require().NoError(err)

	s.Require().NoError(s.guard.Release(ctx, stale))
	kind, err := s.guard.Status(ctx, "session:b")
	s.Require().NoError(err)
	s.Equal(exportguard.KindCSV, kind)

	s.Require().NoError(s.guard.Release(ctx, fresh))
}

func (s *RedisGuardSuite) TestStoresOnlyKindAndToken() {
	ctx := context.Background()
	_, err := s.guard.Acquire(ctx, "ip:203.0.113.9", exportguard.KindCSV)
	s.Require().NoError(err)

	keys, err := s.redis.Client.Keys(ctx, "*").Result()
	s.Require().NoError(err)
	s.Equal([]string{"export:inflight:ip:203.0.113.9"}, keys)

	val, err := s.redis.Client.Get(ctx, keys[0]).Result()
	s.Require().NoError(err)
	s.Regexp(`^csv:[0-9a-f]{32}$`, val)
}

func (s *RedisGuardSuite) TestUnreadableHolderIsStillAConflict() {
	ctx := context.Background()
	s.Require().NoError(s.redis.Client.Set(ctx, "export:inflight:session:c", "garbage", time.Minute).Err())

	_, err := s.guard.Acquire(ctx, "session:c", exportguard.KindPDF)
	s.True(exportguard.IsConflict(err))
	s.NotContains(err.Error(), "idle")
}
