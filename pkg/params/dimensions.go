package params

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance. Field names in errors are the
// JSON parameter names.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Dimensions is the typed view of a parameter set used by the geometry
// builders. All lengths are millimetres.
type Dimensions struct {
	HullLength  float64 `json:"hull_length" validate:"gt=0"`
	HullWidth   float64 `json:"hull_width" validate:"gt=0"`
	HullHeight  float64 `json:"hull_height" validate:"gt=0"`
	HullSpacing float64 `json:"hull_spacing" validate:"gt=0"`

	DeckLength    float64 `json:"deck_length" validate:"gt=0"`
	DeckWidth     float64 `json:"deck_width" validate:"gt=0"`
	DeckThickness float64 `json:"deck_thickness" validate:"gt=0"`
	DeckBaseLevel float64 `json:"deck_base_level" validate:"gt=0"`

	PillarWidth  float64 `json:"pillar_width" validate:"gt=0"`
	PillarHeight float64 `json:"pillar_height" validate:"gt=0"`

	PanelLength    float64 `json:"panel_length" validate:"gt=0"`
	PanelWidth     float64 `json:"panel_width" validate:"gt=0"`
	PanelHeight    float64 `json:"panel_height" validate:"gt=0"`
	PanelBaseLevel float64 `json:"panel_base_level" validate:"gt=0"`

	PanelsLongitudinal int `json:"panels_longitudinal" validate:"gte=1"`
	PanelsTransversal  int `json:"panels_transversal" validate:"gte=1"`

	MastHeight float64 `json:"mast_height" validate:"gte=0"`
	MastRadius float64 `json:"mast_radius" validate:"required_with=MastHeight,gte=0"`

	WireRadius           float64 `json:"wire_radius" validate:"gt=0"`
	WireTransverseOffset float64 `json:"wire_transverse_offset" validate:"gt=0"`
	WireCentralExtension float64 `json:"wire_central_extension" validate:"gte=0"`
}

// Wire defaults, applied when a parameter set does not name them.
const (
	DefaultWireRadius           = 5
	DefaultWireTransverseOffset = 10
	DefaultWireCentralExtension = 10
)

// Dimensions decodes and validates the typed dimensions of ps.
func (ps *ParameterSet) Dimensions() (Dimensions, error) {
	vals := Values{
		"wire_radius":            DefaultWireRadius,
		"wire_transverse_offset": DefaultWireTransverseOffset,
		"wire_central_extension": DefaultWireCentralExtension,
	}
	for k, v := range ps.Values {
		vals[k] = v
	}
	raw, err := json.Marshal(vals)
	if err != nil {
		return Dimensions{}, fmt.Errorf("encode parameters: %w", err)
	}
	var d Dimensions
	if err := json.Unmarshal(raw, &d); err != nil {
		return Dimensions{}, fmt.Errorf("decode parameters: %w", err)
	}
	if err := validate.Struct(&d); err != nil {
		return Dimensions{}, formatValidationError(err)
	}
	return d, nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s: must be greater than %s (got %v)", field, e.Param(), e.Value()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s: must be at least %s (got %v)", field, e.Param(), e.Value()))
		case "required", "required_with":
			msgs = append(msgs, fmt.Sprintf("%s: field is required", field))
		case "hexcolor":
			msgs = append(msgs, fmt.Sprintf("%s: %q is not a hex color", field, e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return fmt.Errorf("invalid parameters: %s", strings.Join(msgs, "; "))
}
