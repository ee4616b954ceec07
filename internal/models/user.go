package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin    = "Admin"
	RoleApprover = "Approver"
	RoleStaff    = "Staff"
)

const (
	OrgMagnova = "Magnova"
	OrgNova    = "Nova"
)

// User struct matches the document in MongoDB. Password holds the bcrypt hash and is never serialized.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID       string             `bson:"user_id" json:"user_id"`
	Email        string             `bson:"email" json:"email"`
	Password     string             `bson:"password" json:"-"`
	Name         string             `bson:"name" json:"name"`
	Organization string             `bson:"organization" json:"organization"`
	Role         string             `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
