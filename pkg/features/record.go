package features

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Wire names of a raw record, as submitted by clients.
const (
	KeyCrop           = "Crop"
	KeyCropYear       = "Crop_Year"
	KeySeason         = "Season"
	KeySoilType       = "Soil_Type"
	KeyArea           = "Area"
	KeyAnnualRainfall = "Annual_Rainfall"
	KeyFertilizer     = "Fertilizer"
	KeyFertilizerN    = "Fertilizer_N"
	KeyFertilizerP    = "Fertilizer_P"
	KeyFertilizerK    = "Fertilizer_K"
	KeyPesticide      = "Pesticide"
)

// NumericColumns are the non-categorical features, in the order they are built.
var NumericColumns = []string{KeyCropYear, KeyAnnualRainfall, KeyFertilizer, KeyPesticide}

// Shape is one of the accepted record layouts.
type Shape string

const (
	ShapeSimplified Shape = "simplified"
	ShapeExtended   Shape = "extended"
)

var shapeKeys = map[Shape][]string{
	ShapeSimplified: {KeyCrop, KeyCropYear, KeySeason, KeyArea, KeyAnnualRainfall, KeyFertilizer, KeyPesticide},
	ShapeExtended: {KeyCrop, KeyCropYear, KeySeason, KeySoilType, KeyArea, KeyAnnualRainfall,
		KeyFertilizerN, KeyFertilizerP, KeyFertilizerK, KeyPesticide},
}

// RawRecord is a loosely typed crop record keyed by wire name.
type RawRecord map[string]any

// CropInput is a validated record collapsed to the simplified shape.
type CropInput struct {
	Shape          Shape
	Crop           string
	CropYear       int
	Season         string
	SoilType       string
	Area           float64
	AnnualRainfall float64
	Fertilizer     float64
	Pesticide      float64
}

// SumFertilizer collapses separate N/P/K components into one total.
func SumFertilizer(n, p, k float64) float64 { return n + p + k }

// ParseRecord detects the record's shape and validates every value.
func ParseRecord(rec RawRecord) (CropInput, error) {
	shape, ok := detectShape(rec)
	if !ok {
		return CropInput{}, malformed("", "got %d fields %v, want the %d-field or %d-field crop record",
			len(rec), sortedKeys(rec), len(shapeKeys[ShapeSimplified]), len(shapeKeys[ShapeExtended]))
	}

	var (
		in  = CropInput{Shape: shape}
		err error
	)
	if in.Crop, err = stringField(rec, KeyCrop, true); err != nil {
		return CropInput{}, err
	}
	if in.Season, err = stringField(rec, KeySeason, false); err != nil {
		return CropInput{}, err
	}
	if in.CropYear, err = intField(rec, KeyCropYear); err != nil {
		return CropInput{}, err
	}
	if in.Area, err = floatField(rec, KeyArea); err != nil {
		return CropInput{}, err
	}
	if in.Area <= 0 {
		return CropInput{}, malformed(KeyArea, "must be greater than 0, got %v", in.Area)
	}
	if in.AnnualRainfall, err = nonNegative(rec, KeyAnnualRainfall); err != nil {
		return CropInput{}, err
	}
	if in.Pesticide, err = nonNegative(rec, KeyPesticide); err != nil {
		return CropInput{}, err
	}

	switch shape {
	case ShapeSimplified:
		if in.Fertilizer, err = nonNegative(rec, KeyFertilizer); err != nil {
			return CropInput{}, err
		}
	case ShapeExtended:
		if in.SoilType, err = stringField(rec, KeySoilType, false); err != nil {
			return CropInput{}, err
		}
		var npk [3]float64
		for i, k := range []string{KeyFertilizerN, KeyFertilizerP, KeyFertilizerK} {
			if npk[i], err = nonNegative(rec, k); err != nil {
				return CropInput{}, err
			}
		}
		in.Fertilizer = SumFertilizer(npk[0], npk[1], npk[2])
	}
	return in, nil
}

func detectShape(rec RawRecord) (Shape, bool) {
	for _, shape := range []Shape{ShapeSimplified, ShapeExtended} {
		keys := shapeKeys[shape]
		if len(rec) != len(keys) {
			continue
		}
		match := true
		for _, k := range keys {
			if _, ok := rec[k]; !ok {
				match = false
				break
			}
		}
		if match {
			return shape, true
		}
	}
	return "", false
}

func stringField(rec RawRecord, key string, required bool) (string, error) {
	switch v := rec[key].(type) {
	case string:
		v = strings.TrimSpace(v)
		if required && v == "" {
			return "", malformed(key, "must not be empty")
		}
		return v, nil
	case nil:
		if required {
			return "", malformed(key, "is required")
		}
		return "", nil
	default:
		return "", malformed(key, "must be a string, got %T", v)
	}
}

func floatField(rec RawRecord, key string) (float64, error) {
	var f float64
	switch v := rec[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		p, err := v.Float64()
		if err != nil {
			return 0, &MalformedInputError{Field: key, Reason: "not a number", Err: err}
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, &MalformedInputError{Field: key, Reason: "not a number", Err: err}
		}
		f = p
	case nil:
		return 0, malformed(key, "is required")
	default:
		return 0, malformed(key, "must be a number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, malformed(key, "must be finite")
	}
	return f, nil
}

func intField(rec RawRecord, key string) (int, error) {
	f, err := floatField(rec, key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, malformed(key, "must be a whole number, got %v", f)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, malformed(key, "out of range, got %v", f)
	}
	return int(f), nil
}

func nonNegative(rec RawRecord, key string) (float64, error) {
	f, err := floatField(rec, key)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, malformed(key, "must not be negative, got %v", f)
	}
	return f, nil
}

func sortedKeys(rec RawRecord) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
