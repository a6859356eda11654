package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/api/responses"
	"github.com/helixmedical/devicecost-backend/api/validators"
	pricesheetsvc "github.com/helixmedical/devicecost-backend/internal/pricesheets"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
	pkgerrors "github.com/helixmedical/devicecost-backend/pkg/errors"
	"github.com/helixmedical/devicecost-backend/pkg/logger"
)

// PriceSheetCreate opens a price sheet for a product at a client.
func PriceSheetCreate(svc pricesheetsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price sheet service unavailable"))
			return
		}

		var payload createPriceSheetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sheet, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sheet)
	}
}

// PriceSheetDetail returns one price sheet with its discounts.
func PriceSheetDetail(svc pricesheetsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "priceSheetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sheet, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sheet)
	}
}

// PriceSheetDiscounts returns the sheet's discounts grouped by cost type, in
// the order the redemption engine walks them.
func PriceSheetDiscounts(svc pricesheetsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "priceSheetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		grouped, err := svc.DiscountsByCostType(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make(map[string][]discountPayload, len(grouped))
		for costType, discounts := range grouped {
			rows := make([]discountPayload, 0, len(discounts))
			for _, d := range discounts {
				rows = append(rows, discountPayload{
					ID:           d.ID,
					Name:         d.Name,
					Label:        d.DisplayLabel(),
					CostType:     string(d.CostType),
					DiscountType: string(d.DiscountType),
					ApplyPhase:   string(d.ApplyPhase),
					Percent:      d.Percent,
					Value:        d.Value,
					Order:        d.Order,
					StartDate:    formatDate(d.StartDate),
					EndDate:      formatDate(d.EndDate),
					RebateID:     d.RebateID,
				})
			}
			out[string(costType)] = rows
		}

		responses.WriteSuccess(w, out)
	}
}

// DiscountCreate adds an admin-defined discount to a price sheet.
func DiscountCreate(svc pricesheetsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "priceSheetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toDiscountInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.AddDiscount(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, discount)
	}
}

type createPriceSheetRequest struct {
	ClientID   string          `json:"client_id" validate:"required,uuid"`
	ProductID  string          `json:"product_id" validate:"required,uuid"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	SystemCost decimal.Decimal `json:"system_cost"`
}

func (p createPriceSheetRequest) toCreateInput() (pricesheetsvc.CreateInput, error) {
	clientID, err := uuid.Parse(p.ClientID)
	if err != nil {
		return pricesheetsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id")
	}
	productID, err := uuid.Parse(p.ProductID)
	if err != nil {
		return pricesheetsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
	}
	return pricesheetsvc.CreateInput{
		ClientID:   clientID,
		ProductID:  productID,
		UnitCost:   p.UnitCost,
		SystemCost: p.SystemCost,
	}, nil
}

type createDiscountRequest struct {
	Name         string          `json:"name" validate:"required"`
	CostType     string          `json:"cost_type" validate:"required,oneof=unit system"`
	DiscountType string          `json:"discount_type" validate:"required,oneof=percent value"`
	ApplyPhase   string          `json:"apply_phase" validate:"required,oneof=pre_order point_of_sale post_order"`
	Percent      decimal.Decimal `json:"percent"`
	Value        decimal.Decimal `json:"value"`
	Order        int             `json:"order" validate:"omitempty,min=1"`
	StartDate    *string         `json:"start_date,omitempty"`
	EndDate      *string         `json:"end_date,omitempty"`
}

func (p createDiscountRequest) toDiscountInput() (pricesheetsvc.DiscountInput, error) {
	costType, err := enums.ParseCostType(p.CostType)
	if err != nil {
		return pricesheetsvc.DiscountInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cost_type")
	}
	discountType, err := enums.ParseDiscountType(p.DiscountType)
	if err != nil {
		return pricesheetsvc.DiscountInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount_type")
	}
	applyPhase, err := enums.ParseApplyPhase(p.ApplyPhase)
	if err != nil {
		return pricesheetsvc.DiscountInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid apply_phase")
	}
	startDate, err := parseDate(p.StartDate, "start_date")
	if err != nil {
		return pricesheetsvc.DiscountInput{}, err
	}
	endDate, err := parseDate(p.EndDate, "end_date")
	if err != nil {
		return pricesheetsvc.DiscountInput{}, err
	}

	return pricesheetsvc.DiscountInput{
		Name:         p.Name,
		CostType:     costType,
		DiscountType: discountType,
		ApplyPhase:   applyPhase,
		Percent:      p.Percent,
		Value:        p.Value,
		Order:        p.Order,
		StartDate:    startDate,
		EndDate:      endDate,
	}, nil
}

type discountPayload struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Label        string          `json:"label"`
	CostType     string          `json:"cost_type"`
	DiscountType string          `json:"discount_type"`
	ApplyPhase   string          `json:"apply_phase"`
	Percent      decimal.Decimal `json:"percent"`
	Value        decimal.Decimal `json:"value"`
	Order        int             `json:"order"`
	StartDate    *string         `json:"start_date,omitempty"`
	EndDate      *string         `json:"end_date,omitempty"`
	RebateID     *uuid.UUID      `json:"rebate_id,omitempty"`
}

const dateLayout = "2006-01-02"

func parseDate(raw *string, field string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid %s (expected YYYY-MM-DD)", field))
	}
	return &parsed, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
