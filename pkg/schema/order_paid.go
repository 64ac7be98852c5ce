package schema

import "time"

const OrderPaidSchemaTextV1 = `{
	"type": "record",
	"namespace": "store.orders",
	"name": "OrderPaid",
	"fields": [
		{"name": "order_id", "type": "long"},
		{"name": "payment_intent_id", "type": "string"},
		{"name": "email", "type": "string"},
		{"name": "amount", "type": "long"},
		{"name": "currency", "type": "string"},
		{"name": "items", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "OrderPaidItem",
				"fields": [
					{"name": "product_id", "type": "long"},
					{"name": "quantity", "type": "int"},
					{"name": "unit_price", "type": "long"}
				]
			}
		}},
		{"name": "paid_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type (
	OrderPaidV1 struct {
		OrderID         int64             `avro:"order_id"`
		PaymentIntentID string            `avro:"payment_intent_id"`
		Email           string            `avro:"email"`
		Amount          int64             `avro:"amount"`
		Currency        string            `avro:"currency"`
		Items           []OrderPaidItemV1 `avro:"items"`
		PaidAt          time.Time         `avro:"paid_at"`
	}

	OrderPaidItemV1 struct {
		ProductID int64 `avro:"product_id"`
		Quantity  int32 `avro:"quantity"`
		UnitPrice int64 `avro:"unit_price"`
	}
)
