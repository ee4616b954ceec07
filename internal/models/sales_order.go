package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const SalesOrderCreated = "Created"

type SalesOrder struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SalesOrderID  string             `bson:"sales_order_id" json:"sales_order_id"`
	SONumber      string             `bson:"so_number" json:"so_number"`
	CustomerName  string             `bson:"customer_name" json:"customer_name"`
	CustomerType  string             `bson:"customer_type" json:"customer_type"`
	TotalQuantity int                `bson:"total_quantity" json:"total_quantity"`
	TotalAmount   float64            `bson:"total_amount" json:"total_amount"`
	Status        string             `bson:"status" json:"status"`
	IMEIList      []string           `bson:"imei_list" json:"imei_list"`
	CreatedBy     string             `bson:"created_by" json:"created_by"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
