package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderdesk-backend/api/responses"
	"github.com/angelmondragon/orderdesk-backend/api/validators"
	"github.com/angelmondragon/orderdesk-backend/internal/orders"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
)

type orderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
}

// Emptiness and quantity bounds are enforced by the order service so the
// HTTP and in-process callers see the same errors.
type createOrderRequest struct {
	UserID    uuid.UUID          `json:"user_id" validate:"required"`
	AddressID uuid.UUID          `json:"address_id" validate:"required"`
	Items     []orderLineRequest `json:"items" validate:"dive"`
}

type updateOrderRequest struct {
	AddressID uuid.UUID `json:"address_id" validate:"required"`
}

func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := stringFilters(r)
		for _, key := range []string{"user_id", "address_id"} {
			id, err := validators.ParseUUIDQuery(r, key)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if id != nil {
				filters[key] = *id
			}
		}
		list, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, list, params.Page, params.PageSize)
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := orders.CreateOrderInput{
			UserID:    payload.UserID,
			AddressID: payload.AddressID,
			Items:     make([]orders.LineInput, 0, len(payload.Items)),
		}
		for _, line := range payload.Items {
			input.Items = append(input.Items, orders.LineInput{ProductID: line.ProductID, Quantity: line.Quantity})
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithUserID(ctx, payload.UserID.String())
		}
		order, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithOrderID(ctx, order.ID.String()), "order.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// UpdateOrder changes the delivery address. Items are immutable once placed.
func UpdateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateAddress(r.Context(), id, payload.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func DeleteOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
