package receiptparse

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed parsed_receipt.schema.json
var parsedReceiptSchema string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("parsed_receipt.json", strings.NewReader(parsedReceiptSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("parsed_receipt.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateParsedJSON checks a serialized ParsedReceipt against the persisted
// display shape: {merchant, date, subtotal, tax, total, items: [{name, amount}]}.
func ValidateParsedJSON(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("parsed receipt does not match schema: %w", err)
	}
	return nil
}

// DecodeParsed validates and decodes a serialized ParsedReceipt.
func DecodeParsed(data []byte) (models.ParsedReceipt, error) {
	if err := ValidateParsedJSON(data); err != nil {
		return models.ParsedReceipt{}, err
	}
	var p models.ParsedReceipt
	if err := json.Unmarshal(data, &p); err != nil {
		return models.ParsedReceipt{}, fmt.Errorf("failed to decode parsed receipt: %w", err)
	}
	if p.Items == nil {
		p.Items = []models.LineItem{}
	}
	return p, nil
}
