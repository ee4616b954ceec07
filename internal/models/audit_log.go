package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit actions.
const (
	ActionCreate        = "CREATE"
	ActionUpdate        = "UPDATE"
	ActionDelete        = "DELETE"
	ActionApprove       = "APPROVE"
	ActionReject        = "REJECT"
	ActionScan          = "SCAN"
	ActionCascadeDelete = "CASCADE_DELETE"
)

// AuditLog is append-only: it is inserted once and never updated or deleted.
type AuditLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	LogID      string             `bson:"log_id" json:"log_id"`
	Action     string             `bson:"action" json:"action"`
	EntityType string             `bson:"entity_type" json:"entity_type"`
	EntityID   string             `bson:"entity_id" json:"entity_id"`
	UserID     string             `bson:"user_id" json:"user_id"`
	UserName   string             `bson:"user_name" json:"user_name"`
	Details    map[string]any     `bson:"details" json:"details"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}
