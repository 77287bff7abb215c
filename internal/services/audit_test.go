package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestAuditLogger(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("log inserts a document", func(mt *mtest.T) {
		audit := NewAuditLoggerFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := audit.Log(context.Background(), "club", "c1", "status_changed", "admin@example.com", map[string]string{"status": "approved"})
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
	})

	mt.Run("log surfaces write errors", func(mt *mtest.T) {
		audit := NewAuditLoggerFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "duplicate key",
			Name:    "DuplicateKey",
		}))

		err := audit.Log(context.Background(), "club", "c1", "deleted", "admin@example.com", nil)
		assert.Error(mt, err)
	})

	mt.Run("recent decodes entries", func(mt *mtest.T) {
		audit := NewAuditLoggerFromCollection(mt.Coll)
		now := time.Now().UTC().Truncate(time.Millisecond)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "db.audit_logs", mtest.FirstBatch,
				bson.D{
					{Key: "_id", Value: primitive.NewObjectID()},
					{Key: "timestamp", Value: now},
					{Key: "entity", Value: "club"},
					{Key: "entity_id", Value: "c1"},
					{Key: "action", Value: "status_changed"},
					{Key: "performed_by", Value: "admin@example.com"},
				},
			),
		)

		logs, err := audit.Recent(context.Background(), "club", "c1", 10)
		require.NoError(mt, err)
		require.Len(mt, logs, 1)
		assert.Equal(mt, "status_changed", logs[0].Action)
		assert.Equal(mt, "admin@example.com", logs[0].PerformedBy)
	})
}

func TestNilAuditLoggerIsNoop(t *testing.T) {
	var audit *AuditLogger

	assert.NoError(t, audit.Log(context.Background(), "club", "c1", "deleted", "a@example.com", nil))
	logs, err := audit.Recent(context.Background(), "club", "c1", 5)
	assert.NoError(t, err)
	assert.Nil(t, logs)
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher

	assert.NoError(t, p.Publish(context.Background(), EventMembershipJoined, map[string]string{"clubId": "c1"}))
	p.Close()
}

func TestNilCacheGetOrSetAlwaysCallsLoader(t *testing.T) {
	var cache *RedisCache
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := GetOrSet(cache, context.Background(), "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, _ = GetOrSet(cache, context.Background(), "k", time.Minute, load)
	assert.Equal(t, 2, calls)
	assert.NoError(t, cache.Delete(context.Background(), "k"))
}
