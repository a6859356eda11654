package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/api/responses"
	"github.com/helixmedical/devicecost-backend/api/validators"
	rebatesvc "github.com/helixmedical/devicecost-backend/internal/rebates"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
	pkgerrors "github.com/helixmedical/devicecost-backend/pkg/errors"
	"github.com/helixmedical/devicecost-backend/pkg/logger"
)

// RebateCreate defines a rebate program with its scopes and tiers.
func RebateCreate(svc rebatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rebate service unavailable"))
			return
		}

		var payload createRebateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rebate, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, rebate)
	}
}

// RebateDetail returns one rebate with its tiers and scopes.
func RebateDetail(svc rebatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "rebateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rebate, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rebate)
	}
}

// RebateList lists rebates, optionally narrowed to one client.
func RebateList(svc rebatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := uuid.Nil
		if raw := r.URL.Query().Get("client_id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id"))
				return
			}
			clientID = parsed
		}

		rebates, err := svc.List(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rebates)
	}
}

// RebateApply runs the apply transition: tier evaluation, discount
// materialization, item recomputes, status flip.
func RebateApply(svc rebatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "rebateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rebate, err := svc.Apply(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rebate)
	}
}

// RebateUnapply reverses a completed rebate back to new.
func RebateUnapply(svc rebatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "rebateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rebate, err := svc.Unapply(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rebate)
	}
}

type createRebateRequest struct {
	Name           string               `json:"name" validate:"required"`
	ClientID       string               `json:"client_id" validate:"required,uuid"`
	ManufacturerID string               `json:"manufacturer_id" validate:"required,uuid"`
	StartDate      *string              `json:"start_date,omitempty"`
	EndDate        *string              `json:"end_date,omitempty"`
	Scopes         []rebateScopeRequest `json:"scopes,omitempty" validate:"omitempty,dive"`
	Tiers          []rebateTierRequest  `json:"tiers,omitempty" validate:"omitempty,dive"`
}

type rebateScopeRequest struct {
	Scope    string `json:"scope" validate:"required,oneof=product category specialty"`
	TargetID string `json:"target_id" validate:"required,uuid"`
	Role     string `json:"role" validate:"required,oneof=eligible rebated"`
}

type rebateTierRequest struct {
	TierType     string           `json:"tier_type" validate:"required,oneof=spend marketshare purchased_units used_units"`
	LowerBound   decimal.Decimal  `json:"lower_bound"`
	UpperBound   *decimal.Decimal `json:"upper_bound,omitempty"`
	DiscountType string           `json:"discount_type" validate:"required,oneof=percent value"`
	Percent      decimal.Decimal  `json:"percent"`
	Value        decimal.Decimal  `json:"value"`
	Order        int              `json:"order" validate:"omitempty,min=1"`
}

func (p createRebateRequest) toCreateInput() (rebatesvc.CreateInput, error) {
	clientID, err := uuid.Parse(p.ClientID)
	if err != nil {
		return rebatesvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id")
	}
	manufacturerID, err := uuid.Parse(p.ManufacturerID)
	if err != nil {
		return rebatesvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid manufacturer_id")
	}

	input := rebatesvc.CreateInput{
		Name:           p.Name,
		ClientID:       clientID,
		ManufacturerID: manufacturerID,
	}
	if input.StartDate, err = parseDate(p.StartDate, "start_date"); err != nil {
		return rebatesvc.CreateInput{}, err
	}
	if input.EndDate, err = parseDate(p.EndDate, "end_date"); err != nil {
		return rebatesvc.CreateInput{}, err
	}

	for _, scope := range p.Scopes {
		targetID, err := uuid.Parse(scope.TargetID)
		if err != nil {
			return rebatesvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scope target_id")
		}
		input.Scopes = append(input.Scopes, rebatesvc.ScopeInput{
			Scope:    enums.RebatableScope(scope.Scope),
			TargetID: targetID,
			Role:     enums.RebatableRole(scope.Role),
		})
	}
	for _, tier := range p.Tiers {
		order := tier.Order
		if order < 1 {
			order = 1
		}
		input.Tiers = append(input.Tiers, rebatesvc.TierInput{
			TierType:     enums.TierType(tier.TierType),
			LowerBound:   tier.LowerBound,
			UpperBound:   tier.UpperBound,
			DiscountType: enums.DiscountType(tier.DiscountType),
			Percent:      tier.Percent,
			Value:        tier.Value,
			Order:        order,
		})
	}
	return input, nil
}
