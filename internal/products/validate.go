package products

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/money"
)

const (
	minLabelLength    = 3
	maxLabelLength    = 100
	minCountInPackage = 1
	maxCountInPackage = 10000
)

func validateLabel(raw string) (string, error) {
	label := strings.TrimSpace(raw)
	if n := len([]rune(label)); n < minLabelLength || n > maxLabelLength {
		return "", pkgerrors.OutOfRange("label", minLabelLength, maxLabelLength, n)
	}
	return label, nil
}

func validateCountInPackage(v int) error {
	if v < minCountInPackage || v > maxCountInPackage {
		return pkgerrors.OutOfRange("count_in_package", minCountInPackage, maxCountInPackage, v)
	}
	return nil
}

func validateCountInWarehouse(v int) error {
	if v < 0 {
		return pkgerrors.OutOfRange("count_in_warehouse", 0, nil, v)
	}
	return nil
}

// normalizePrice quantizes to two places before checking 0 < price <= MaxPrice.
func normalizePrice(raw decimal.Decimal) (decimal.Decimal, error) {
	price := money.Normalize(raw)
	if !money.InRange(price) {
		return decimal.Decimal{}, pkgerrors.OutOfRange("price", "0.01", money.Format(money.MaxPrice), money.Format(price))
	}
	return price, nil
}

func (in *CreateProductInput) normalize() error {
	label, err := validateLabel(in.Label)
	if err != nil {
		return err
	}
	in.Label = label
	if err := validateCountInPackage(in.CountInPackage); err != nil {
		return err
	}
	if err := validateCountInWarehouse(in.CountInWarehouse); err != nil {
		return err
	}
	price, err := normalizePrice(in.Price)
	if err != nil {
		return err
	}
	in.Price = price
	return nil
}

func (u ProductUpdate) changes() (map[string]any, error) {
	updates := map[string]any{}
	if u.Label != nil {
		label, err := validateLabel(*u.Label)
		if err != nil {
			return nil, err
		}
		updates["label"] = label
	}
	if u.CountInPackage != nil {
		if err := validateCountInPackage(*u.CountInPackage); err != nil {
			return nil, err
		}
		updates["count_in_package"] = *u.CountInPackage
	}
	if u.CountInWarehouse != nil {
		if err := validateCountInWarehouse(*u.CountInWarehouse); err != nil {
			return nil, err
		}
		updates["count_in_warehouse"] = *u.CountInWarehouse
	}
	if u.Price != nil {
		price, err := normalizePrice(*u.Price)
		if err != nil {
			return nil, err
		}
		updates["price"] = price
	}
	return updates, nil
}
