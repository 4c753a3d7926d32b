package errors

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundDetails identifies the missing entity.
type NotFoundDetails struct {
	Entity string    `json:"entity"`
	ID     uuid.UUID `json:"id"`
}

// FieldDetails describes a single field constraint violation.
type FieldDetails struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Min   any    `json:"min,omitempty"`
	Max   any    `json:"max,omitempty"`
	Value any    `json:"value,omitempty"`
}

// ConflictDetails describes the business rule behind a CONFLICT.
type ConflictDetails struct {
	Reason   Reason    `json:"reason"`
	Entity   string    `json:"entity"`
	ID       uuid.UUID `json:"id,omitempty"`
	Field    string    `json:"field,omitempty"`
	RefCount int64     `json:"ref_count,omitempty"`
}

// StockShortfall reports which order line could not be reserved.
type StockShortfall struct {
	ProductID uuid.UUID `json:"product_id"`
	Line      int       `json:"line"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

func NotFound(entity string, id uuid.UUID) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity)).
		WithDetails(NotFoundDetails{Entity: entity, ID: id})
}

func Validation(field, rule, message string) *Error {
	return New(CodeValidation, message).WithDetails(FieldDetails{Field: field, Rule: rule})
}

func OutOfRange(field string, min, max, value any) *Error {
	return New(CodeValidation, fmt.Sprintf("%s out of range", field)).
		WithDetails(FieldDetails{Field: field, Rule: "range", Min: min, Max: max, Value: value})
}

func Conflict(reason Reason, entity string, id uuid.UUID, message string) *Error {
	return New(CodeConflict, message).
		WithDetails(ConflictDetails{Reason: reason, Entity: entity, ID: id})
}

func InsufficientStock(shortfall StockShortfall) *Error {
	return New(CodeInsufficientStock, fmt.Sprintf(
		"insufficient stock for product %s: requested %d, available %d",
		shortfall.ProductID, shortfall.Requested, shortfall.Available,
	)).WithDetails(shortfall)
}

func Storage(err error, op string) *Error {
	return Wrap(CodeStorage, err, op)
}

// ConflictReason returns the reason attached to a CONFLICT, if any.
func ConflictReason(err error) (Reason, bool) {
	typed := As(err)
	if typed == nil || typed.Code() != CodeConflict {
		return "", false
	}
	switch d := typed.Details().(type) {
	case ConflictDetails:
		return d.Reason, true
	case *ConflictDetails:
		return d.Reason, d != nil
	}
	return "", false
}

// ShortfallFrom extracts the stock shortfall attached to an INSUFFICIENT_STOCK error.
func ShortfallFrom(err error) (StockShortfall, bool) {
	typed := As(err)
	if typed == nil || typed.Code() != CodeInsufficientStock {
		return StockShortfall{}, false
	}
	s, ok := typed.Details().(StockShortfall)
	return s, ok
}
