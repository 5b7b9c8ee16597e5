package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pauseshop/backend/internal/domain"
	"github.com/pauseshop/backend/internal/referrer"
	"github.com/pauseshop/backend/internal/usecase"
)

// bundleFile is the input of the encode command
type bundleFile struct {
	Product      domain.Product              `json:"product"`
	Products     []domain.MarketplaceProduct `json:"products"`
	ClickedIndex int                         `json:"clickedIndex"`
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "pauseshop",
		Short:        "Inspect and build pauseshop referrer data",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log decode details to stderr")

	logger := func() *zap.Logger {
		if !verbose {
			return zap.NewNop()
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		return l
	}

	root.AddCommand(newDetectCmd(), newDecodeCmd(logger), newEncodeCmd(logger))
	return root
}

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <data>",
		Short: "Print the format of a referrer data string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), referrer.DetectFormat(args[0]))
			return nil
		},
	}
}

func newDecodeCmd(logger func() *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <data>",
		Short: "Decode a referrer data string and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := usecase.NewReferrerService(nil, logger())
			resolved, err := service.Resolve(cmd.Context(), strings.TrimSpace(args[0]), "")
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resolved)
		},
	}
}

func newEncodeCmd(logger func() *zap.Logger) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "encode --file bundle.json",
		Short: "Encode a product bundle into the fixed-length format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrap(err, "read bundle")
			}

			var bundle bundleFile
			if err := json.Unmarshal(raw, &bundle); err != nil {
				return errors.Wrap(err, "parse bundle")
			}

			service := usecase.NewReferrerService(nil, logger())
			data, err := service.Encode(bundle.Product, bundle.Products, bundle.ClickedIndex)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), data)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a JSON bundle {product, products, clickedIndex}")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
