// Package validation turns raw product payloads into validated field sets.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"product-service/internal/config"
	"product-service/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// Mode selects which fields are mandatory.
type Mode int

const (
	// ModeCreate requires name and price.
	ModeCreate Mode = iota
	// ModeUpdate treats every field as optional.
	ModeUpdate
)

const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldPrice       = "price"
)

// Tag aliases bound to the configured length limits.
const (
	tagNameLength        = "name_length"
	tagDescriptionLength = "description_length"
	tagPrice             = "price"
)

const reasonPrice = "must be a non-negative number with at most 2 decimal places"

// maxPrice is the largest price that fits in int64 cents.
var maxPrice = decimal.New(math.MaxInt64, -2)

// Exponents outside this range are rejected before any arithmetic, so
// exponent-form input such as 1e1000000 is never expanded.
const (
	minPriceExponent = -18
	maxPriceExponent = 18
)

type createInput struct {
	Name        *string          `json:"name" validate:"required,notblank,name_length"`
	Description *string          `json:"description" validate:"omitnil,description_length"`
	Price       *decimal.Decimal `json:"price" validate:"required,price"`
}

type updateInput struct {
	Name        *string          `json:"name" validate:"omitnil,notblank,name_length"`
	Description *string          `json:"description" validate:"omitnil,description_length"`
	Price       *decimal.Decimal `json:"price" validate:"omitnil,price"`
}

// Validator checks product payloads against the configured field policy.
type Validator struct {
	validate *validator.Validate
	limits   config.ValidationConfig
}

// New creates a Validator for the given length limits.
func New(limits config.ValidationConfig) (*Validator, error) {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Prices are validated on their canonical decimal text.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		return nil, fmt.Errorf("failed to register notblank: %w", err)
	}
	if err := v.RegisterValidation(tagPrice, validatePrice); err != nil {
		return nil, fmt.Errorf("failed to register price: %w", err)
	}

	v.RegisterAlias(tagNameLength, fmt.Sprintf("max=%d", limits.NameMaxLength))
	v.RegisterAlias(tagDescriptionLength, fmt.Sprintf("max=%d", limits.DescriptionMaxLength))

	return &Validator{validate: v, limits: limits}, nil
}

// Validate checks payload for the given mode and returns the supplied fields.
// Every problem found is reported in a single validation error.
func (v *Validator) Validate(payload model.Payload, mode Mode) (*model.ProductFields, error) {
	var (
		fields     model.ProductFields
		violations []model.Violation
		rejected   = map[string]bool{}
	)

	rejectField := func(field, reason string) {
		rejected[field] = true
		violations = append(violations, model.Violation{Field: field, Reason: reason})
	}

	for key, raw := range payload {
		switch key {
		case fieldName:
			if isNull(raw) {
				continue
			}
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				rejectField(fieldName, "must be a string")
				continue
			}
			name = strings.TrimSpace(name)
			fields.Name = &name

		case fieldDescription:
			if isNull(raw) {
				continue
			}
			var desc string
			if err := json.Unmarshal(raw, &desc); err != nil {
				rejectField(fieldDescription, "must be a string or null")
				continue
			}
			fields.Description = &desc

		case fieldPrice:
			if isNull(raw) {
				continue
			}
			price, err := parsePrice(raw)
			if err != nil {
				rejectField(fieldPrice, "must be a number")
				continue
			}
			if reason := priceRangeReason(price); reason != "" {
				rejectField(fieldPrice, reason)
				continue
			}
			if price.Sign() == 0 {
				price = decimal.Zero
			}
			fields.Price = &price

		default:
			violations = append(violations, model.Violation{Field: key, Reason: "unknown field"})
		}
	}

	var input interface{}
	if mode == ModeCreate {
		input = &createInput{Name: fields.Name, Description: fields.Description, Price: fields.Price}
	} else {
		input = &updateInput{Name: fields.Name, Description: fields.Description, Price: fields.Price}
	}

	if err := v.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("failed to validate product: %w", err)
		}
		for _, fe := range fieldErrs {
			if rejected[fe.Field()] {
				continue
			}
			violations = append(violations, model.Violation{Field: fe.Field(), Reason: v.reason(fe)})
		}
	}

	if len(violations) > 0 {
		sort.SliceStable(violations, func(i, j int) bool {
			return violations[i].Field < violations[j].Field
		})
		return nil, model.NewValidationError(violations)
	}

	return &fields, nil
}

func (v *Validator) reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "notblank":
		return "must not be blank"
	case tagNameLength:
		return fmt.Sprintf("must be at most %d characters", v.limits.NameMaxLength)
	case tagDescriptionLength:
		return fmt.Sprintf("must be at most %d characters", v.limits.DescriptionMaxLength)
	case tagPrice:
		return reasonPrice
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// parsePrice accepts only JSON numbers; quoted strings are rejected.
func parsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || (text[0] != '-' && (text[0] < '0' || text[0] > '9')) {
		return decimal.Decimal{}, errors.New("not a JSON number")
	}
	return decimal.NewFromString(text)
}

// priceRangeReason reports why d cannot be stored as int64 cents, or "" when
// it can. Only the sign and exponent are inspected before the final compare.
func priceRangeReason(d decimal.Decimal) string {
	switch {
	case d.Sign() == 0:
		return ""
	case d.Sign() < 0 || d.Exponent() < minPriceExponent:
		return reasonPrice
	case d.Exponent() > maxPriceExponent || d.GreaterThan(maxPrice):
		return fmt.Sprintf("must be at most %s", maxPrice.StringFixed(2))
	}
	return ""
}

func validatePrice(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Round(2))
}
