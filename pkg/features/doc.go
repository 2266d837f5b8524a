// Package features turns crop records into the fixed-width numeric rows the
// yield model was trained on.
//
// The expected columns come from the header of the training reference
// dataset. A record is encoded as its numeric features plus one Crop_<name>
// indicator, reconciled against those columns: missing columns become zero
// and extra columns are dropped, so the result always has the schema's
// length and order.
package features
