package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/security/jwtmiddleware"
	"github.com/linemk/agriconnect/internal/service"
	"github.com/shopspring/decimal"
)

// OrderItemRequest позиция заказа; price необязательна
type OrderItemRequest struct {
	Product  int64            `json:"product" validate:"required,gt=0"`
	Quantity int              `json:"quantity" validate:"required,min=1,max=2147483647"`
	Price    *decimal.Decimal `json:"price"`
}

// CreateOrderRequest тело POST /api/orders/
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount     *decimal.Decimal   `json:"total_amount"`
	ShippingAddress string             `json:"shipping_address" validate:"required"`
	PhoneNumber     string             `json:"phone_number" validate:"required,max=15"`
}

// UpdateOrderRequest тело PUT/PATCH /api/orders/{id}/
type UpdateOrderRequest struct {
	ShippingAddress *string `json:"shipping_address" validate:"omitempty,min=1"`
	PhoneNumber     *string `json:"phone_number" validate:"omitempty,max=15"`
}

// UpdateStatusRequest тело POST /api/orders/{id}/update_status/
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ListOrdersHandler обрабатывает GET /api/orders/
func ListOrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ListOrdersHandler"))

		list, err := orders.List(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// MyOrdersHandler обрабатывает GET /api/orders/my_orders/
func MyOrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.MyOrdersHandler"))

		list, err := orders.Mine(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// GetOrderHandler обрабатывает GET /api/orders/{id}/
func GetOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.GetOrderHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		order, err := orders.Get(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}

// CreateOrderHandler обрабатывает POST /api/orders/
func CreateOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CreateOrderHandler"))

		var req CreateOrderRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		in := service.OrderInput{
			Items:           make([]service.OrderItemInput, 0, len(req.Items)),
			TotalAmount:     req.TotalAmount,
			ShippingAddress: req.ShippingAddress,
			PhoneNumber:     req.PhoneNumber,
		}
		for _, it := range req.Items {
			in.Items = append(in.Items, service.OrderItemInput{
				ProductID: it.Product,
				Quantity:  it.Quantity,
				Price:     it.Price,
			})
		}

		order, err := orders.Create(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), in)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, order)
	}
}

// UpdateOrderHandler обрабатывает PUT и PATCH /api/orders/{id}/; позиции и сумма не меняются
func UpdateOrderHandler(log *slog.Logger, orders service.OrderService, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.UpdateOrderHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		var req UpdateOrderRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		if !partial {
			err := requireFields(map[string]bool{
				"shipping_address": req.ShippingAddress != nil,
				"phone_number":     req.PhoneNumber != nil,
			})
			if err != nil {
				writeError(w, logger, err)
				return
			}
		}

		order, err := orders.Update(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id, service.OrderPatch{
			ShippingAddress: req.ShippingAddress,
			PhoneNumber:     req.PhoneNumber,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}

// DeleteOrderHandler обрабатывает DELETE /api/orders/{id}/
func DeleteOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.DeleteOrderHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if err := orders.Delete(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UpdateOrderStatusHandler обрабатывает POST /api/orders/{id}/update_status/.
// Пустой или неизвестный статус проверяется сервисом.
func UpdateOrderStatusHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.UpdateOrderStatusHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		var req UpdateStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		order, err := orders.UpdateStatus(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id, models.OrderStatus(req.Status))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}
