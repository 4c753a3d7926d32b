package address

import (
	"strings"
	"unicode"

	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
)

const (
	maxStreetLength = 100
	maxPlaceLength  = 50
	minZipLength    = 3
	maxZipLength    = 10
)

func cleanText(field, value string, max int, required bool) (string, error) {
	v := strings.TrimSpace(value)
	n := len([]rune(v))
	if required && n == 0 {
		return "", pkgerrors.Validation(field, "required", field+" is required")
	}
	if n > max {
		return "", pkgerrors.OutOfRange(field, 0, max, n)
	}
	return v, nil
}

// normalizeZip strips everything but letters and digits before checking length.
func normalizeZip(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	zip := b.String()
	if n := len([]rune(zip)); n < minZipLength || n > maxZipLength {
		return "", pkgerrors.OutOfRange("zip_code", minZipLength, maxZipLength, n)
	}
	return zip, nil
}

func (in *CreateAddressInput) normalize() error {
	var err error
	if in.Street, err = cleanText("street", in.Street, maxStreetLength, true); err != nil {
		return err
	}
	if in.City, err = cleanText("city", in.City, maxPlaceLength, true); err != nil {
		return err
	}
	if in.Country, err = cleanText("country", in.Country, maxPlaceLength, true); err != nil {
		return err
	}
	if in.State != nil {
		state, err := cleanText("state", *in.State, maxPlaceLength, false)
		if err != nil {
			return err
		}
		in.State = &state
	}
	in.ZipCode, err = normalizeZip(in.ZipCode)
	return err
}

// changes validates the update and returns the column assignments it implies.
func (u AddressUpdate) changes() (map[string]any, error) {
	updates := map[string]any{}
	text := []struct {
		field    string
		value    *string
		max      int
		required bool
	}{
		{"street", u.Street, maxStreetLength, true},
		{"city", u.City, maxPlaceLength, true},
		{"state", u.State, maxPlaceLength, false},
		{"country", u.Country, maxPlaceLength, true},
	}
	for _, f := range text {
		if f.value == nil {
			continue
		}
		v, err := cleanText(f.field, *f.value, f.max, f.required)
		if err != nil {
			return nil, err
		}
		updates[f.field] = v
	}
	if u.ZipCode != nil {
		zip, err := normalizeZip(*u.ZipCode)
		if err != nil {
			return nil, err
		}
		updates["zip_code"] = zip
	}
	if u.IsPrimary != nil {
		updates["is_primary"] = *u.IsPrimary
	}
	return updates, nil
}
