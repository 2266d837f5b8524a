package features

import (
	"github.com/rs/zerolog/log"
)

// UnknownPolicy decides what happens to a crop with no indicator column.
type UnknownPolicy int

const (
	// UnknownZeroFill leaves every crop indicator at zero, so the model sees
	// "no crop". This is how the trained pipeline behaves.
	UnknownZeroFill UnknownPolicy = iota
	// UnknownReject fails the record with ErrUnknownCategory.
	UnknownReject
)

// ParseUnknownPolicy maps a config value to a policy; anything but
// "reject" means zero fill.
func ParseUnknownPolicy(s string) UnknownPolicy {
	if s == "reject" {
		return UnknownReject
	}
	return UnknownZeroFill
}

func (p UnknownPolicy) String() string {
	if p == UnknownReject {
		return "reject"
	}
	return "zero"
}

// FeatureRow is one model input, aligned column for column with a Schema.
type FeatureRow struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
	// Unknown holds category values that had no column and were dropped.
	Unknown []string `json:"unknown,omitempty"`
}

// Get returns the value of a named column.
func (r FeatureRow) Get(name string) (float64, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return 0, false
}

// Transformer turns raw records into feature rows.
type Transformer struct {
	Policy UnknownPolicy
	// OnUnknown, when set, is told about each category value with no
	// column, under either policy.
	OnUnknown func(crop string)
}

var defaultTransformer = &Transformer{Policy: UnknownZeroFill}

// Transform uses the zero-fill policy.
func Transform(rec RawRecord, schema *Schema) (FeatureRow, error) {
	return defaultTransformer.Transform(rec, schema)
}

// Transform validates rec and encodes it against schema.
func (t *Transformer) Transform(rec RawRecord, schema *Schema) (FeatureRow, error) {
	in, err := ParseRecord(rec)
	if err != nil {
		return FeatureRow{}, err
	}
	return t.Encode(in, schema)
}

// Encode builds the feature row for an already validated input.
func (t *Transformer) Encode(in CropInput, schema *Schema) (FeatureRow, error) {
	if schema == nil || schema.Len() == 0 {
		return FeatureRow{}, &TransformationError{InputShape: string(in.Shape), Reason: "no expected columns"}
	}

	// numeric subset plus the single crop indicator
	built := map[string]float64{
		KeyCropYear:       float64(in.CropYear),
		KeyAnnualRainfall: in.AnnualRainfall,
		KeyFertilizer:     in.Fertilizer,
		KeyPesticide:      in.Pesticide,
	}
	indicator := CropPrefix + in.Crop
	if _, clash := built[indicator]; clash {
		return FeatureRow{}, malformed(KeyCrop, "crop %q collides with feature column %s", in.Crop, indicator)
	}
	built[indicator] = 1

	var unknown []string
	if !schema.Has(indicator) {
		if t.OnUnknown != nil {
			t.OnUnknown(in.Crop)
		}
		if t.Policy == UnknownReject {
			return FeatureRow{}, &MalformedInputError{
				Field:  KeyCrop,
				Reason: "crop " + in.Crop + " is not in the model vocabulary",
				Err:    ErrUnknownCategory,
			}
		}
		unknown = []string{in.Crop}
		log.Warn().
			Str("crop", in.Crop).
			Str("schema_version", schema.Version).
			Msg("unknown crop, all crop indicators left at zero")
	}

	// Columns the record cannot supply are zero; anything built but absent
	// from the schema is dropped by selecting in schema order.
	row := FeatureRow{
		Columns: make([]string, schema.Len()),
		Values:  make([]float64, schema.Len()),
		Unknown: unknown,
	}
	copy(row.Columns, schema.Columns)
	for i, col := range schema.Columns {
		row.Values[i] = built[col]
	}

	if len(row.Values) != schema.Len() || len(row.Columns) != schema.Len() {
		err := &TransformationError{
			InputShape: string(in.Shape),
			Expected:   schema.Len(),
			Produced:   len(row.Values),
			Reason:     "row does not line up with the schema",
		}
		log.Error().Err(err).Str("shape", string(in.Shape)).Int("expected", schema.Len()).Int("produced", len(row.Values)).Msg("feature transformation failed")
		return FeatureRow{}, err
	}
	for _, col := range NumericColumns {
		if !schema.Has(col) {
			continue
		}
		if v, ok := row.Get(col); !ok || v != built[col] {
			err := &TransformationError{
				InputShape: string(in.Shape),
				Expected:   schema.Len(),
				Produced:   len(row.Values),
				Reason:     "numeric column " + col + " lost during reconciliation",
			}
			log.Error().Err(err).Str("column", col).Msg("feature transformation failed")
			return FeatureRow{}, err
		}
	}
	return row, nil
}
