//go:build integration

package feed_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"engageflow/internal/procedure/feed"
	"engageflow/internal/procedure/models"
	id "engageflow/pkg/domain"
	"engageflow/pkg/testutil/containers"
)

type RedisFeedSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	feed  *feed.RedisFeed
}

func TestRedisFeedSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisFeedSuite))
}

func (s *RedisFeedSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.feed = feed.NewRedis(s.redis.Client, "test.procedure.changes."+uuid.NewString())
}

func (s *RedisFeedSuite) TestPublishReachesSubscriber() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := s.feed.Subscribe(ctx)
	s.Require().NoError(err)
	defer sub.Close()

	ev := models.ChangeEvent{
		ProcedureID:  id.ProcedureID(uuid.New()),
		EngagementID: id.EngagementID(uuid.New()),
		Action:       models.ActionApprove,
		FromState:    models.StateInReview,
		ToState:      models.StateApproved,
		Version:      7,
		ActorID:      id.UserID(uuid.New()),
		OccurredAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	s.Require().NoError(s.feed.Publish(ctx, ev))

	select {
	case got := <-sub.Events():
		s.Equal(ev.ProcedureID, got.ProcedureID)
		s.Equal(models.StateApproved, got.ToState)
		s.Equal(7, got.Version)
		s.True(ev.OccurredAt.Equal(got.OccurredAt))
	case <-ctx.Done():
		s.Fail("timed out waiting for change event")
	}
}

func (s *RedisFeedSuite) TestCloseEndsStream() {
	sub, err := s.feed.Subscribe(context.Background())
	s.Require().NoError(err)
	sub.Close()

	select {
	case _, ok := <-sub.Events():
		s.False(ok)
	case <-time.After(2 * time.Second):
		s.Fail("stream not closed")
	}
}
