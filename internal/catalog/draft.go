package catalog

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Draft is validated, normalized input for a create or update.
type Draft struct {
	Code  string
	Name  string
	Price decimal.Decimal
}

func (d Draft) fields() Fields {
	return Fields{Code: d.Code, Name: d.Name, Price: d.Price}
}

var pricePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)

// FieldErrors maps an input field to the message shown next to it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid product: " + strings.Join(parts, "; ")
}

// ParseDraft validates raw form input. Code and name are lowercased: stored
// values are always lowercase, which is what makes uniqueness
// case-insensitive.
func ParseDraft(code, name, price string) (Draft, error) {
	errs := FieldErrors{}

	code = normalize(code)
	name = normalize(name)
	price = strings.TrimSpace(price)

	if code == "" {
		errs["code"] = "Product code is required"
	}
	if name == "" {
		errs["name"] = "Product name is required"
	}

	var p decimal.Decimal
	switch {
	case price == "":
		errs["price"] = "Product price is required"
	case !pricePattern.MatchString(price):
		errs["price"] = "Invalid price format"
	default:
		var err error
		if p, err = decimal.NewFromString(price); err != nil {
			errs["price"] = "Invalid price format"
		}
	}

	if len(errs) > 0 {
		return Draft{}, errs
	}
	return Draft{Code: code, Name: name, Price: p}, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
