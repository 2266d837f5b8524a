package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"farmsight/pkg/features"
	"farmsight/pkg/model"
)

// RootCommand builds the featurectl command tree.
func RootCommand() *cobra.Command {
	var policy string

	rootCmd := &cobra.Command{
		Use:          "featurectl",
		Short:        "Inspect the expected column schema and run the feature transform offline",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&policy, "unknown-crop", "zero", "unknown crop policy: zero or reject")

	transformer := func() *features.Transformer {
		return &features.Transformer{Policy: features.ParseUnknownPolicy(policy)}
	}

	rootCmd.AddCommand(
		columnsCommand(),
		transformCommand(transformer),
		predictCommand(transformer),
	)
	return rootCmd
}

func columnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <dataset>",
		Short: "Print the expected columns and crop vocabulary of a reference dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := features.LoadExpectedColumns(args[0])
			if err != nil {
				return err
			}
			if err := s.Validate(features.NumericColumns...); err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"version": s.Version,
				"columns": s.Columns,
				"crops":   s.Categories(features.CropPrefix),
			})
		},
	}
}

func transformCommand(tr func() *features.Transformer) *cobra.Command {
	return &cobra.Command{
		Use:   "transform <dataset> <record.json>",
		Short: "Print the feature row for one crop record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, _, err := buildRow(tr(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, row)
		},
	}
}

func predictCommand(tr func() *features.Transformer) *cobra.Command {
	return &cobra.Command{
		Use:   "predict <dataset> <model.json> <record.json>",
		Short: "Predict the yield of one crop record with a local model artifact",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lm, err := model.LoadLinear(args[1])
			if err != nil {
				return err
			}
			row, s, err := buildRow(tr(), args[0], args[2])
			if err != nil {
				return err
			}
			if err := model.CheckSchema(lm, s); err != nil {
				return err
			}
			y, err := lm.Predict(context.Background(), row)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"predicted_yield": y,
				"model_version":   lm.Version(),
				"schema_version":  s.Version,
				"unknown_crops":   row.Unknown,
			})
		},
	}
}

func buildRow(tr *features.Transformer, datasetPath, recordPath string) (features.FeatureRow, *features.Schema, error) {
	s, err := features.LoadExpectedColumns(datasetPath)
	if err != nil {
		return features.FeatureRow{}, nil, err
	}
	f, err := os.Open(recordPath)
	if err != nil {
		return features.FeatureRow{}, nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var rec features.RawRecord
	if err := dec.Decode(&rec); err != nil {
		return features.FeatureRow{}, nil, fmt.Errorf("decode %s: %w", recordPath, err)
	}
	row, err := tr.Transform(rec, s)
	return row, s, err
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
