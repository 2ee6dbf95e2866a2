// Package monitor validates incoming checkout payloads against a JSON
// schema before they reach the workflow, so malformed requests are rejected
// with a field-level explanation instead of a generic upstream error.
package monitor

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// checkoutSchema is the request contract for POST /api/checkout/complete.
// It covers structure only: payment_data stays optional even for card
// methods, since an order without payment data is created and left pending
// rather than rejected. Token presence is the payment adapters' concern.
const checkoutSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "CheckoutRequest",
	"type": "object",
	"required": ["items", "customer_data", "payment_method"],
	"properties": {
		"items": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["product_id", "quantity"],
				"properties": {
					"product_id": {"type": "integer", "minimum": 1},
					"variation_id": {"type": "integer", "minimum": 1},
					"quantity": {"type": "integer", "minimum": 1},
					"variation": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["attribute", "value"],
							"properties": {
								"attribute": {"type": "string"},
								"value": {"type": "string"}
							}
						}
					}
				}
			}
		},
		"customer_data": {
			"type": "object",
			"required": ["first_name", "last_name", "address_1", "city", "country", "email"],
			"properties": {
				"first_name": {"type": "string", "minLength": 1},
				"last_name": {"type": "string", "minLength": 1},
				"address_1": {"type": "string", "minLength": 1},
				"city": {"type": "string", "minLength": 1},
				"country": {"type": "string", "minLength": 2},
				"email": {"type": "string", "format": "email"},
				"phone": {"type": "string"},
				"shipping_option": {
					"type": "object",
					"properties": {
						"method_id": {"type": "string"},
						"method_title": {"type": "string"},
						"cost": {"type": "number", "minimum": 0}
					}
				}
			}
		},
		"payment_method": {
			"type": "string",
			"enum": ["stripe", "paypal", "skipcash", "bacs", "cheque", "cod"]
		},
		"payment_data": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["key", "value"],
				"properties": {
					"key": {"type": "string", "minLength": 1},
					"value": {"type": "string"}
				}
			}
		}
	}
}`

// ContractMonitor validates raw request bodies against the checkout schema.
type ContractMonitor struct {
	schema *gojsonschema.Schema
}

// NewContractMonitor compiles the embedded checkout schema. A compilation
// failure indicates a programming error in the schema itself.
func NewContractMonitor() (*ContractMonitor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(checkoutSchema))
	if err != nil {
		return nil, fmt.Errorf("monitor: compiling checkout schema: %w", err)
	}
	return &ContractMonitor{schema: schema}, nil
}

// Validate checks the given request body against the checkout schema. It
// returns true when valid, or false plus the list of violations. The error
// return covers functional failures such as unparseable JSON.
func (cm *ContractMonitor) Validate(requestBody []byte) (bool, []string, error) {
	result, err := cm.schema.Validate(gojsonschema.NewBytesLoader(requestBody))
	if err != nil {
		return false, nil, fmt.Errorf("monitor: validating request: %w", err)
	}

	if result.Valid() {
		return true, nil, nil
	}

	var violations []string
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return false, violations, nil
}

// FormatErrors joins validation violations into one message suitable for a
// response body.
func FormatErrors(validationErrors []string) string {
	if len(validationErrors) == 0 {
		return ""
	}
	return "Validation errors: " + strings.Join(validationErrors, "; ")
}
