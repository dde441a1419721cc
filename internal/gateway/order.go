// internal/gateway/order.go
package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"daystar-admissions/internal/common/errors"
	"daystar-admissions/internal/wizard"
)

// Fixed order parameters for the application fee. The amount is the same for
// every programme and campus.
const (
	OrderCurrency    = "KES"
	OrderAmount      = 2050
	OrderDescription = "Application Fee"
	OrderBranch      = "ZERODAY"

	orderIDPrefix   = "zeroday_"
	callbackPath    = "/api/ipn"
	defaultCountry  = "KE"
	defaultCityLine = "Nairobi"
)

// BillingAddress carries the applicant's contact details on the order.
type BillingAddress struct {
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
	CountryCode  string `json:"country_code"`
	FirstName    string `json:"first_name"`
	MiddleName   string `json:"middle_name"`
	LastName     string `json:"last_name"`
	Line1        string `json:"line_1"`
	Line2        string `json:"line_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	ZipCode      string `json:"zip_code"`
}

// Order is the payload sent to the order-submission endpoint.
type Order struct {
	ID             string         `json:"id"`
	Currency       string         `json:"currency"`
	Amount         int            `json:"amount"`
	Description    string         `json:"description"`
	CallbackURL    string         `json:"callback_url"`
	Branch         string         `json:"branch"`
	BillingAddress BillingAddress `json:"billing_address"`
}

// BuildOrder assembles the fee order for an application record. The order id
// is synthetic and unique per attempt; the callback URL is derived from the
// caller's origin.
func BuildOrder(rec *wizard.ApplicationRecord, origin string, now time.Time) Order {
	return Order{
		ID:          fmt.Sprintf("%s%d", orderIDPrefix, now.UnixMilli()),
		Currency:    OrderCurrency,
		Amount:      OrderAmount,
		Description: OrderDescription,
		CallbackURL: origin + callbackPath,
		Branch:      OrderBranch,
		BillingAddress: BillingAddress{
			EmailAddress: rec.Email,
			PhoneNumber:  rec.PhoneNumber,
			CountryCode:  defaultCountry,
			FirstName:    rec.FirstName,
			MiddleName:   rec.MiddleName,
			LastName:     rec.LastName,
			Line1:        defaultCityLine,
			City:         defaultCityLine,
		},
	}
}

// orderSchema pins the wire shape of the order payload. Submissions that do
// not match are rejected before any request is made.
const orderSchema = `{
	"type": "object",
	"required": ["id", "currency", "amount", "description", "callback_url", "branch", "billing_address"],
	"properties": {
		"id": {"type": "string", "pattern": "^zeroday_[0-9]+$"},
		"currency": {"type": "string", "enum": ["KES"]},
		"amount": {"type": "number", "enum": [2050]},
		"description": {"type": "string", "minLength": 1},
		"callback_url": {"type": "string", "minLength": 1},
		"branch": {"type": "string", "enum": ["ZERODAY"]},
		"billing_address": {
			"type": "object",
			"required": ["email_address", "phone_number", "country_code", "first_name", "last_name"],
			"properties": {
				"email_address": {"type": "string", "minLength": 1},
				"phone_number": {"type": "string", "minLength": 1},
				"country_code": {"type": "string", "enum": ["KE"]},
				"first_name": {"type": "string", "minLength": 1},
				"last_name": {"type": "string", "minLength": 1}
			}
		}
	}
}`

// ValidateOrder checks an order against the payload schema.
func ValidateOrder(order Order) error {
	doc, err := json.Marshal(order)
	if err != nil {
		return errors.NewOrderPayloadInvalidError(err.Error())
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(orderSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return errors.NewOrderPayloadInvalidError(err.Error())
	}

	if !result.Valid() {
		details := ""
		for _, desc := range result.Errors() {
			if details != "" {
				details += "; "
			}
			details += desc.String()
		}
		return errors.NewOrderPayloadInvalidError(details)
	}
	return nil
}
