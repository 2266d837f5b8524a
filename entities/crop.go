package entities

import "time"

// CropRecord is a stored cultivation record. The same struct is used by the
// sqlite (gorm) and mongo stores.
type CropRecord struct {
	ID             string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	CropName       string     `gorm:"index" bson:"crop_name" json:"crop_name"`
	CropYear       int        `bson:"crop_year" json:"crop_year"`
	Season         string     `bson:"season" json:"season"`
	SoilType       string     `bson:"soil_type,omitempty" json:"soil_type,omitempty"`
	Area           float64    `bson:"area" json:"area"`                       // hectares
	AnnualRainfall float64    `bson:"annual_rainfall" json:"annual_rainfall"` // mm
	Fertilizer     float64    `bson:"fertilizer" json:"fertilizer"`           // kg/ha, N+P+K when given separately
	Pesticide      float64    `bson:"pesticide" json:"pesticide"`             // kg/ha
	PredictedYield *float64   `bson:"predicted_yield,omitempty" json:"predicted_yield"`
	Tags           []string   `gorm:"serializer:json" bson:"tags" json:"tags"`
	CreatedAt      time.Time  `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `gorm:"autoUpdateTime:false" bson:"updated_at,omitempty" json:"updated_at"`
}

func (CropRecord) TableName() string { return "crop_records" }
