package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/uuid"

	"orders_service/internal/models"
	"orders_service/internal/storage"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type ServiceItemInput struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type CreateOrderInput struct {
	Lab      string             `json:"lab"`
	Patient  string             `json:"patient"`
	Customer string             `json:"customer"`
	Services []ServiceItemInput `json:"services"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type OrderList struct {
	Orders     []models.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

type OrderService struct {
	orders storage.OrderStore
	log    *slog.Logger
}

func NewOrderService(orders storage.OrderStore, lgr *slog.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		log:    lgr,
	}
}

// Create validates the input and persists a new order with its lifecycle
// defaults set explicitly: state CREATED, status ACTIVE, every line item
// PENDING. Nothing is persisted on a validation failure.
func (s *OrderService) Create(ctx context.Context, ownerID uuid.UUID, in CreateOrderInput) (models.Order, error) {
	const op = "service.CreateOrder"

	if err := ValidateCreateOrder(in); err != nil {
		return models.Order{}, err
	}

	var total float64
	for _, svc := range in.Services {
		total += svc.Value
	}
	if total <= 0 {
		return models.Order{}, ErrOrderValue
	}

	services := make([]models.ServiceItem, 0, len(in.Services))
	for _, svc := range in.Services {
		services = append(services, models.ServiceItem{
			Name:   svc.Name,
			Value:  svc.Value,
			Status: models.ServiceStatusPending,
		})
	}

	order := models.Order{
		Lab:      in.Lab,
		Patient:  in.Patient,
		Customer: in.Customer,
		Services: services,
		State:    models.OrderStateCreated,
		Status:   models.OrderStatusActive,
		UserID:   ownerID,
	}

	created, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("order created",
		slog.String("order_id", created.ID.String()),
		slog.String("user_id", ownerID.String()),
	)

	return created, nil
}

// List returns the owner's active orders, most recent first. Page and limit
// below 1 fall back to the defaults rather than failing the request.
func (s *OrderService) List(ctx context.Context, ownerID uuid.UUID, page, limit int, state string) (OrderList, error) {
	const op = "service.ListOrders"

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	orders, total, err := s.orders.ListOrders(ctx, ownerID, storage.OrderFilter{
		State:  state,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return OrderList{}, fmt.Errorf("%s: %w", op, err)
	}

	if orders == nil {
		orders = []models.Order{}
	}

	return OrderList{
		Orders: orders,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

// Advance moves the order one step along CREATED -> ANALYSIS -> COMPLETED.
// The write is conditional on the observed state, so two racing calls cannot
// both advance; the loser gets ErrOrderConflict.
func (s *OrderService) Advance(ctx context.Context, ownerID, orderID uuid.UUID) (models.Order, error) {
	const op = "service.AdvanceOrder"

	order, err := s.orders.GetOrder(ctx, orderID, ownerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Order{}, ErrOrderNotFound
		}
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	next, ok := nextState(order.State)
	if !ok {
		return models.Order{}, ErrOrderCompleted
	}

	updated, err := s.orders.UpdateOrderState(ctx, orderID, ownerID, order.State, next)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Order{}, ErrOrderConflict
		}
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("order advanced",
		slog.String("order_id", orderID.String()),
		slog.String("state", string(updated.State)),
	)

	return updated, nil
}

func nextState(state models.OrderState) (models.OrderState, bool) {
	switch state {
	case models.OrderStateCreated:
		return models.OrderStateAnalysis, true
	case models.OrderStateAnalysis:
		return models.OrderStateCompleted, true
	default:
		return "", false
	}
}
