package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/DrKat0m/GreenBucks/internal/eco"
	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/DrKat0m/GreenBucks/internal/ocr"
	"github.com/DrKat0m/GreenBucks/internal/receiptparse"
	"github.com/DrKat0m/GreenBucks/internal/reconcile"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "greenbucks",
		Short:        "Parse receipts and score purchases offline",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(ocrCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(estimateCmd())
	rootCmd.AddCommand(attachCmd())
	rootCmd.AddCommand(validateCmd())
	return rootCmd
}

// readInput reads a file, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse receipt text into merchant, date, totals and items",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			raw, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			return printJSON(cmd, receiptparse.Parse(string(raw)))
		},
	}
}

func ocrCmd() *cobra.Command {
	var (
		provider string
		parse    bool
	)

	cmd := &cobra.Command{
		Use:   "ocr <image>",
		Short: "Extract text from a receipt image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			cfg := ocr.ConfigFromEnv()
			if provider != "" {
				cfg.Provider = provider
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout+10*time.Second)
			defer cancel()

			extractor, err := ocr.New(ctx, cfg)
			if err != nil {
				return err
			}
			res, err := extractor.ExtractText(ctx, image, http.DetectContentType(image))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "method=%s confidence=%.2f duration=%s\n", res.Method, res.Confidence, res.Duration.Round(time.Millisecond))
			if parse {
				return printJSON(cmd, receiptparse.Parse(res.Text))
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "OCR provider (tesseract, gemini); defaults to OCR_PROVIDER")
	cmd.Flags().BoolVar(&parse, "parse", false, "print the parsed receipt instead of the raw text")
	return cmd
}

func classifyCmd() *cobra.Command {
	var merchant string

	cmd := &cobra.Command{
		Use:   "classify [item...]",
		Short: "Classify a purchase as eco positive, negative or unknown",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(merchant) == "" && len(args) == 0 {
				return fmt.Errorf("give --merchant or at least one item")
			}
			fmt.Fprintln(cmd.OutOrStdout(), eco.Classify(merchant, args))
			return nil
		},
	}

	cmd.Flags().StringVar(&merchant, "merchant", "", "merchant name")
	return cmd
}

func estimateCmd() *cobra.Command {
	var (
		amount string
		score  int
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate cashback and CO2 for a spend and eco score",
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}
			var s *int
			if cmd.Flags().Changed("score") {
				s = &score
			}
			return printJSON(cmd, eco.Estimate(amt, s, nil))
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "transaction amount")
	cmd.Flags().IntVar(&score, "score", 0, "eco score 0-10; omit for an unscored purchase")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func attachCmd() *cobra.Command {
	var (
		merchant string
		amount   string
		category string
	)

	cmd := &cobra.Command{
		Use:   "attach [file]",
		Short: "Triage a transaction and reconcile receipt text into it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			raw, err := readInput(cmd, path)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			tx := models.Transaction{
				ID:       uuid.New().String(),
				Date:     now.Format("2006-01-02"),
				Merchant: merchant,
				Category: models.Category(category),
				Amount:   amt,
			}
			var categories []string
			if category != "" {
				categories = []string{category}
			}
			eco.Triage(merchant, categories).Apply(&tx)

			fileName := path
			if fileName == "" || fileName == "-" {
				fileName = "stdin.txt"
			}
			text := string(raw)
			return printJSON(cmd, reconcile.Attach(tx, receiptparse.Parse(text), text, fileName, now))
		},
	}

	cmd.Flags().StringVar(&merchant, "merchant", "", "bank merchant name")
	cmd.Flags().StringVar(&amount, "amount", "", "bank amount (purchases are negative)")
	cmd.Flags().StringVar(&category, "category", "", "bank category")
	cmd.MarkFlagRequired("merchant")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a parsed receipt JSON document against the receipt schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			if err := receiptparse.ValidateParsedJSON(data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
