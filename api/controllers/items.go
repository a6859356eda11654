package controllers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/api/responses"
	"github.com/helixmedical/devicecost-backend/api/validators"
	itemsvc "github.com/helixmedical/devicecost-backend/internal/items"
	"github.com/helixmedical/devicecost-backend/internal/pricing"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
	pkgerrors "github.com/helixmedical/devicecost-backend/pkg/errors"
	"github.com/helixmedical/devicecost-backend/pkg/logger"
)

// ItemCreate records a purchased item and binds its initial cost.
func ItemCreate(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		var payload createItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// ItemList returns one cursor page of a client's items.
func ItemList(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		clientID, err := uuid.Parse(query.Get("client_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id"))
			return
		}

		params := itemsvc.ListParams{
			Filter: itemsvc.Filter{ClientID: clientID},
			Cursor: query.Get("cursor"),
		}
		if raw := query.Get("manufacturer_id"); raw != "" {
			manufacturerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid manufacturer_id"))
				return
			}
			params.Filter.ManufacturerID = manufacturerID
		}
		if raw := query.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			params.Limit = limit
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"items":       result.Items,
			"next_cursor": result.NextCursor,
		})
	}
}

// ItemDetail returns one item with its device, case and discounts.
func ItemDetail(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ItemUpdate edits an item's identity and dates.
func ItemUpdate(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ItemAssignDiscounts replaces the item's discount set and rebinds its cost.
func ItemAssignDiscounts(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignDiscountsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountIDs, err := payload.toDiscountIDs()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AssignDiscounts(r.Context(), id, discountIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ItemMarkUsed flips the implanted flag, refreshing purchase price aggregates
// when it changes.
func ItemMarkUsed(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload markUsedRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.MarkUsed(r.Context(), id, payload.IsUsed, payload.NotImplantedReason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ItemRedemption returns the admin-facing cost breakdown for an item without
// persisting anything.
func ItemRedemption(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Redemption(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toRedemptionPayload(result))
	}
}

type createItemRequest struct {
	ClientID      string   `json:"client_id" validate:"required,uuid"`
	ProductID     string   `json:"product_id" validate:"required,uuid"`
	SerialNumber  *string  `json:"serial_number,omitempty"`
	LotNumber     *string  `json:"lot_number,omitempty"`
	CostType      string   `json:"cost_type" validate:"omitempty,oneof=unit system"`
	PurchaseType  string   `json:"purchase_type" validate:"omitempty,oneof=bulk consignment"`
	PurchasedDate *string  `json:"purchased_date,omitempty"`
	ExpiredDate   *string  `json:"expired_date,omitempty"`
	RepCaseID     *string  `json:"rep_case_id,omitempty" validate:"omitempty,uuid"`
	IsUsed        bool     `json:"is_used"`
	DiscountIDs   []string `json:"discount_ids,omitempty" validate:"omitempty,dive,uuid"`
}

func (p createItemRequest) toCreateInput() (itemsvc.CreateInput, error) {
	clientID, err := uuid.Parse(p.ClientID)
	if err != nil {
		return itemsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id")
	}
	productID, err := uuid.Parse(p.ProductID)
	if err != nil {
		return itemsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
	}

	input := itemsvc.CreateInput{
		ClientID:     clientID,
		ProductID:    productID,
		SerialNumber: p.SerialNumber,
		LotNumber:    p.LotNumber,
		CostType:     enums.CostType(p.CostType),
		PurchaseType: enums.PurchaseTypeBulk,
		IsUsed:       p.IsUsed,
	}
	if p.PurchaseType != "" {
		purchaseType, err := enums.ParsePurchaseType(p.PurchaseType)
		if err != nil {
			return itemsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase_type")
		}
		input.PurchaseType = purchaseType
	}
	if input.PurchasedDate, err = parseDate(p.PurchasedDate, "purchased_date"); err != nil {
		return itemsvc.CreateInput{}, err
	}
	if input.ExpiredDate, err = parseDate(p.ExpiredDate, "expired_date"); err != nil {
		return itemsvc.CreateInput{}, err
	}
	if p.RepCaseID != nil {
		repCaseID, err := uuid.Parse(*p.RepCaseID)
		if err != nil {
			return itemsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rep_case_id")
		}
		input.RepCaseID = &repCaseID
	}
	for _, raw := range p.DiscountIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return itemsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount id")
		}
		input.DiscountIDs = append(input.DiscountIDs, id)
	}
	return input, nil
}

type updateItemRequest struct {
	SerialNumber  *string `json:"serial_number,omitempty"`
	LotNumber     *string `json:"lot_number,omitempty"`
	PurchasedDate *string `json:"purchased_date,omitempty"`
	ExpiredDate   *string `json:"expired_date,omitempty"`
}

func (p updateItemRequest) toUpdateInput() (itemsvc.UpdateInput, error) {
	input := itemsvc.UpdateInput{
		SerialNumber: p.SerialNumber,
		LotNumber:    p.LotNumber,
	}
	var err error
	if input.PurchasedDate, err = parseDate(p.PurchasedDate, "purchased_date"); err != nil {
		return itemsvc.UpdateInput{}, err
	}
	if input.ExpiredDate, err = parseDate(p.ExpiredDate, "expired_date"); err != nil {
		return itemsvc.UpdateInput{}, err
	}
	return input, nil
}

type assignDiscountsRequest struct {
	DiscountIDs []string `json:"discount_ids" validate:"required,dive,uuid"`
}

func (p assignDiscountsRequest) toDiscountIDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(p.DiscountIDs))
	for _, raw := range p.DiscountIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type markUsedRequest struct {
	IsUsed             bool    `json:"is_used"`
	NotImplantedReason *string `json:"not_implanted_reason,omitempty"`
}

type redemptionPayload struct {
	OriginalCost      decimal.Decimal           `json:"original_cost"`
	TotalCost         decimal.Decimal           `json:"total_cost"`
	PointOfSaleSaving decimal.Decimal           `json:"point_of_sale_saving"`
	Discounts         []redeemedDiscountPayload `json:"discounts"`
}

type redeemedDiscountPayload struct {
	ID      uuid.UUID       `json:"id"`
	Label   string          `json:"label"`
	IsValid bool            `json:"is_valid"`
	Value   decimal.Decimal `json:"value"`
}

func toRedemptionPayload(result *pricing.Result) redemptionPayload {
	out := redemptionPayload{
		OriginalCost:      result.OriginalCost,
		TotalCost:         result.TotalCost,
		PointOfSaleSaving: result.PointOfSaleSaving,
		Discounts:         make([]redeemedDiscountPayload, 0, len(result.Discounts)),
	}
	for _, redeemed := range result.Discounts {
		out.Discounts = append(out.Discounts, redeemedDiscountPayload{
			ID:      redeemed.Discount.ID,
			Label:   redeemed.Discount.DisplayLabel(),
			IsValid: redeemed.IsValid,
			Value:   redeemed.Value,
		})
	}
	return out
}
