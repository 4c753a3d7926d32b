package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderdesk-backend/api/responses"
	"github.com/angelmondragon/orderdesk-backend/api/validators"
	"github.com/angelmondragon/orderdesk-backend/internal/address"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
)

type createAddressRequest struct {
	UserID    uuid.UUID `json:"user_id" validate:"required"`
	Street    string    `json:"street" validate:"required"`
	City      string    `json:"city" validate:"required"`
	State     *string   `json:"state,omitempty"`
	ZipCode   string    `json:"zip_code" validate:"required"`
	Country   string    `json:"country" validate:"required"`
	IsPrimary bool      `json:"is_primary"`
}

type updateAddressRequest struct {
	Street    *string `json:"street,omitempty"`
	City      *string `json:"city,omitempty"`
	State     *string `json:"state,omitempty"`
	ZipCode   *string `json:"zip_code,omitempty"`
	Country   *string `json:"country,omitempty"`
	IsPrimary *bool   `json:"is_primary,omitempty"`
}

func ListAddresses(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := stringFilters(r, "city", "country")
		userID, err := validators.ParseUUIDQuery(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if userID != nil {
			filters["user_id"] = *userID
		}
		primary, err := validators.ParseBoolQuery(r, "is_primary")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if primary != nil {
			filters["is_primary"] = *primary
		}

		list, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, list, params.Page, params.PageSize)
	}
}

// ListUserAddresses returns the user's primary address, or all of them when
// include_non_primary=true. Primary comes first.
func ListUserAddresses(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		all, err := validators.ParseBoolQuery(r, "include_non_primary")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForUser(r.Context(), userID, all != nil && *all)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addr, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addr)
	}
}

func CreateAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addr, err := svc.Create(r.Context(), address.CreateAddressInput{
			UserID:    payload.UserID,
			Street:    payload.Street,
			City:      payload.City,
			State:     payload.State,
			ZipCode:   payload.ZipCode,
			Country:   payload.Country,
			IsPrimary: payload.IsPrimary,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, addr)
	}
}

func UpdateAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addr, err := svc.Update(r.Context(), id, address.AddressUpdate{
			Street:    payload.Street,
			City:      payload.City,
			State:     payload.State,
			ZipCode:   payload.ZipCode,
			Country:   payload.Country,
			IsPrimary: payload.IsPrimary,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addr)
	}
}

func DeleteAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "addressId")
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
