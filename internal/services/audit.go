package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clubsphere/internal/logger"
)

const auditCollection = "audit_logs"

// AuditLog is one admin or manager action stored in MongoDB
type AuditLog struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
	Entity      string             `bson:"entity" json:"entity"`
	EntityID    string             `bson:"entity_id" json:"entityId"`
	Action      string             `bson:"action" json:"action"`
	PerformedBy string             `bson:"performed_by" json:"performedBy"`
	Data        any                `bson:"data" json:"data"`
}

// AuditLogger writes AuditLog documents.
// A nil *AuditLogger is valid and records nothing.
type AuditLogger struct {
	collection *mongo.Collection
}

// NewAuditLogger connects to MongoDB and returns a logger for the audit collection
func NewAuditLogger(ctx context.Context, uri, database string) (*AuditLogger, *mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Named("audit").Info("MongoDB connection established")
	return NewAuditLoggerFromCollection(client.Database(database).Collection(auditCollection)), client, nil
}

func NewAuditLoggerFromCollection(collection *mongo.Collection) *AuditLogger {
	return &AuditLogger{collection: collection}
}

// Log stores one entry
func (l *AuditLogger) Log(ctx context.Context, entity, entityID, action, performedBy string, data any) error {
	if l == nil {
		return nil
	}
	_, err := l.collection.InsertOne(ctx, AuditLog{
		Timestamp:   time.Now().UTC(),
		Entity:      entity,
		EntityID:    entityID,
		Action:      action,
		PerformedBy: performedBy,
		Data:        data,
	})
	return err
}

// record is the fire-and-forget form used by the services
func (l *AuditLogger) record(ctx context.Context, entity, entityID, action, performedBy string, data any) {
	if err := l.Log(ctx, entity, entityID, action, performedBy, data); err != nil {
		logger.Named("audit").Warnw("failed to write audit log", "entity", entity, "action", action, "error", err)
	}
}

// Recent returns the latest entries for one entity, newest first
func (l *AuditLogger) Recent(ctx context.Context, entity, entityID string, limit int64) ([]AuditLog, error) {
	if l == nil {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := l.collection.Find(ctx, bson.M{"entity": entity, "entity_id": entityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []AuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
