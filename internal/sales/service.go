// Package sales creates sales orders and reserves the devices they list.
package sales

import (
	"context"
	"errors"
	"time"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/audit"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/sequence"
	"magnova-scm-api-server/internal/store"

	"github.com/google/uuid"
)

// Reserver moves the listed IMEIs to Reserved.
type Reserver interface {
	Reserve(ctx context.Context, imeis []string) (int64, error)
}

type Service struct {
	store    store.Store
	seq      *sequence.Generator
	audit    *audit.Recorder
	policy   auth.Policy
	reserver Reserver
	now      func() time.Time
}

func NewService(s store.Store, seq *sequence.Generator, rec *audit.Recorder, policy auth.Policy, reserver Reserver) *Service {
	return &Service{store: s, seq: seq, audit: rec, policy: policy, reserver: reserver, now: time.Now}
}

type CreateInput struct {
	CustomerName  string   `json:"customer_name" validate:"required"`
	CustomerType  string   `json:"customer_type" validate:"required"`
	TotalQuantity int      `json:"total_quantity" validate:"gte=0"`
	TotalAmount   float64  `json:"total_amount" validate:"gte=0"`
	IMEIList      []string `json:"imei_list" validate:"required,dive,required"`
}

func (s *Service) Create(ctx context.Context, pr auth.Principal, in CreateInput) (*models.SalesOrder, error) {
	if err := s.policy.CanCreateSalesOrder(pr); err != nil {
		return nil, err
	}
	if err := apperr.Validate(in); err != nil {
		return nil, err
	}

	number, err := s.seq.Next(ctx, sequence.SalesOrders(s.store))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	so := &models.SalesOrder{
		SalesOrderID:  uuid.NewString(),
		SONumber:      number,
		CustomerName:  in.CustomerName,
		CustomerType:  in.CustomerType,
		TotalQuantity: in.TotalQuantity,
		TotalAmount:   in.TotalAmount,
		Status:        models.SalesOrderCreated,
		IMEIList:      in.IMEIList,
		CreatedBy:     pr.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	var reserved int64
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.InsertSalesOrder(ctx, so); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Conflict("sales order %s already exists", number)
			}
			return apperr.Internal(err, "could not create sales order")
		}
		n, err := s.reserver.Reserve(ctx, so.IMEIList)
		if err != nil {
			return err
		}
		reserved = n
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.Internal(err, "could not create sales order")
	}

	s.audit.Record(ctx, pr, models.ActionCreate, audit.EntitySalesOrder, so.SONumber, map[string]any{
		"customer": so.CustomerName,
		"reserved": reserved,
	})
	return so, nil
}

func (s *Service) List(ctx context.Context) ([]models.SalesOrder, error) {
	out, err := s.store.ListSalesOrders(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "could not list sales orders")
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, pr auth.Principal, soNumber string) error {
	if err := auth.RequireAdmin(pr); err != nil {
		return err
	}
	n, err := s.store.DeleteSalesOrder(ctx, soNumber)
	if err != nil {
		return apperr.Internal(err, "could not delete sales order %s", soNumber)
	}
	if n == 0 {
		return apperr.NotFound("sales order %s not found", soNumber)
	}
	s.audit.Record(ctx, pr, models.ActionDelete, audit.EntitySalesOrder, soNumber, nil)
	return nil
}
