package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oscodesolution-devops/gift-ginnie-server/api/responses"
	"github.com/oscodesolution-devops/gift-ginnie-server/api/validators"
	addresssvc "github.com/oscodesolution-devops/gift-ginnie-server/internal/address"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/enums"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/logger"
)

type createAddressRequest struct {
	AddressType string  `json:"address_type"`
	Line1       string  `json:"address_line_1" validate:"required"`
	Line2       *string `json:"address_line_2,omitempty"`
	City        string  `json:"city" validate:"required"`
	State       string  `json:"state" validate:"required"`
	Country     string  `json:"country" validate:"required"`
	Pincode     string  `json:"pincode" validate:"required"`
}

// AddressCreate stores a new delivery address for the caller.
func AddressCreate(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Create(r.Context(), userID, addresssvc.CreateInput{
			AddressType: enums.AddressType(payload.AddressType),
			Line1:       payload.Line1,
			Line2:       payload.Line2,
			City:        payload.City,
			State:       payload.State,
			Country:     payload.Country,
			Pincode:     payload.Pincode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAddressResponse(record))
	}
}

// AddressList returns the caller's saved addresses.
func AddressList(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]addressResponse, 0, len(records))
		for i := range records {
			items = append(items, newAddressResponse(&records[i]))
		}

		responses.WriteSuccess(w, map[string]any{"addresses": items})
	}
}

// AddressDelete removes one of the caller's addresses.
func AddressDelete(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := uuid.Parse(chi.URLParam(r, "addressId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id"))
			return
		}

		if err := svc.Delete(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
