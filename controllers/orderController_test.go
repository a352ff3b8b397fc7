package controllers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validOrderPayload() orderPayload {
	return orderPayload{
		Total:           decimal.RequireFromString("129.99"),
		ShippingStreet:  "12 Rue de la Paix",
		ShippingCity:    "Paris",
		ShippingState:   "IDF",
		ShippingZipCode: "75002",
		ShippingCountry: "France",
		PaymentMethod:   "card",
		Items: []orderItemPayload{
			{ProductID: uuid.New(), Quantity: 1, Price: decimal.RequireFromString("129.99")},
		},
	}
}

func TestOrderPayloadValidate(t *testing.T) {
	assert.NoError(t, validOrderPayload().validate())
}

func TestOrderPayloadValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*orderPayload)
	}{
		{"missing street", func(p *orderPayload) { p.ShippingStreet = "" }},
		{"missing country", func(p *orderPayload) { p.ShippingCountry = "" }},
		{"missing payment method", func(p *orderPayload) { p.PaymentMethod = "" }},
		{"negative total", func(p *orderPayload) { p.Total = decimal.NewFromInt(-1) }},
		{"no items", func(p *orderPayload) { p.Items = nil }},
		{"nil product id", func(p *orderPayload) { p.Items[0].ProductID = uuid.Nil }},
		{"zero quantity", func(p *orderPayload) { p.Items[0].Quantity = 0 }},
		{"negative item price", func(p *orderPayload) { p.Items[0].Price = decimal.NewFromInt(-5) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validOrderPayload()
			tt.mutate(&p)
			assert.Error(t, p.validate())
		})
	}
}
