package transport

import (
	"strconv"

	"orcamento_backend/platform/money"
	"orcamento_backend/platform/validator"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// InterestRateScale matches the fractional digits stored for interest rates.
const InterestRateScale = 4

const tagMaxScale = "max_scale"

// RegisterValidations installs the struct-level rules of this package.
func RegisterValidations(v *validator.Validator) {
	v.RegisterStructValidation(ValidateItemRequest, ItemRequest{})
	v.RegisterStructValidation(validatePaymentCondition, PaymentConditionRequest{})
	v.RegisterStructValidation(validateCreateAdjustments, CreateInvoiceRequest{})
	v.RegisterStructValidation(validateUpdateAdjustments, UpdateInvoiceRequest{})
}

// ValidateItemRequest enforces the catalog reference variant and the amount
// bounds of a line item.
func ValidateItemRequest(sl govalidator.StructLevel) {
	item := sl.Current().Interface().(ItemRequest)

	hasProduct := item.ProductID != nil
	hasService := item.ServiceID != nil
	switch {
	case hasProduct && hasService:
		sl.ReportError(item.ServiceID, "serviceId", "ServiceID", "excluded_with", "productId")
	case !hasProduct && !hasService:
		sl.ReportError(item.ProductID, "productId", "ProductID", "required_without", "serviceId")
	}
	if item.ProductVariationID != nil && !hasProduct {
		sl.ReportError(item.ProductVariationID, "productVariationId", "ProductVariationID", "required_with", "productId")
	}
	if item.ServiceVariationID != nil && !hasService {
		sl.ReportError(item.ServiceVariationID, "serviceVariationId", "ServiceVariationID", "required_with", "serviceId")
	}

	if !item.Quantity.IsPositive() {
		sl.ReportError(item.Quantity, "quantity", "Quantity", "gt", "0")
	}
	reportScale(sl, item.Quantity, "quantity", "Quantity", money.QuantityScale)
	if item.UnitPrice.IsNegative() {
		sl.ReportError(item.UnitPrice, "unitPrice", "UnitPrice", "gte", "0")
	}
	reportScale(sl, item.UnitPrice, "unitPrice", "UnitPrice", money.Scale)
	if item.CustomPrice != nil {
		if item.CustomPrice.IsNegative() {
			sl.ReportError(item.CustomPrice, "customPrice", "CustomPrice", "gte", "0")
		}
		reportScale(sl, *item.CustomPrice, "customPrice", "CustomPrice", money.Scale)
	}
}

// reportScale rejects amounts with more fractional digits than the column
// that stores them.
func reportScale(sl govalidator.StructLevel, d decimal.Decimal, field, structField string, scale int32) {
	if !money.FitsScale(d, scale) {
		sl.ReportError(d, field, structField, tagMaxScale, strconv.Itoa(int(scale)))
	}
}

func validateAdjustment(sl govalidator.StructLevel, d *decimal.Decimal, field, structField string) {
	if d == nil {
		return
	}
	if d.IsNegative() {
		sl.ReportError(*d, field, structField, "gte", "0")
	}
	reportScale(sl, *d, field, structField, money.Scale)
}

func validatePaymentCondition(sl govalidator.StructLevel) {
	pc := sl.Current().Interface().(PaymentConditionRequest)
	if pc.InterestRate.IsNegative() {
		sl.ReportError(pc.InterestRate, "interestRate", "InterestRate", "gte", "0")
	}
	reportScale(sl, pc.InterestRate, "interestRate", "InterestRate", InterestRateScale)
}

func validateCreateAdjustments(sl govalidator.StructLevel) {
	req := sl.Current().Interface().(CreateInvoiceRequest)
	validateAdjustment(sl, &req.Discounts, "discounts", "Discounts")
	validateAdjustment(sl, &req.Additions, "additions", "Additions")
	validateAdjustment(sl, &req.Displacement, "displacement", "Displacement")
}

func validateUpdateAdjustments(sl govalidator.StructLevel) {
	req := sl.Current().Interface().(UpdateInvoiceRequest)
	validateAdjustment(sl, req.Discounts, "discounts", "Discounts")
	validateAdjustment(sl, req.Additions, "additions", "Additions")
	validateAdjustment(sl, req.Displacement, "displacement", "Displacement")
}
