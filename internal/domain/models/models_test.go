package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		ok       bool
	}{
		{models.StatusPending, models.StatusProcessing, true},
		{models.StatusProcessing, models.StatusShipped, true},
		{models.StatusShipped, models.StatusDelivered, true},
		{models.StatusPending, models.StatusCancelled, true},
		{models.StatusShipped, models.StatusCancelled, true},
		{models.StatusShipped, models.StatusShipped, true},
		// назад и из терминальных состояний нельзя
		{models.StatusShipped, models.StatusPending, false},
		{models.StatusDelivered, models.StatusPending, false},
		{models.StatusDelivered, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusProcessing, false},
		{models.StatusPending, models.StatusDelivered, false},
		{models.StatusPending, "unknown", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, models.StatusDelivered.Terminal())
	assert.True(t, models.StatusCancelled.Terminal())
	assert.False(t, models.StatusPending.Terminal())
	assert.False(t, models.OrderStatus("bogus").Terminal())
}

func TestOrder_ItemsTotal(t *testing.T) {
	order := models.Order{Items: []models.OrderItem{
		{ProductID: 1, Quantity: 5, Price: decimal.RequireFromString("2.99")},
		{ProductID: 2, Quantity: 2, Price: decimal.RequireFromString("4.50")},
	}}
	assert.True(t, decimal.RequireFromString("23.95").Equal(order.ItemsTotal()))
}

func TestValidAmount(t *testing.T) {
	cases := map[string]bool{
		"0":           true,
		"4.99":        true,
		"99999999.99": true,
		"100000000":   false,
		"10000000000": false,
		"1.005":       false,
		"-0.01":       false,
		"12.50000":    true,
	}
	for s, ok := range cases {
		assert.Equal(t, ok, models.ValidAmount(decimal.RequireFromString(s)), s)
	}
}

func TestParseCategory(t *testing.T) {
	c, ok := models.ParseCategory("Vegetables")
	assert.True(t, ok)
	assert.Equal(t, models.CategoryVegetables, c)

	_, ok = models.ParseCategory("meat")
	assert.False(t, ok)
}

func TestDate_JSON(t *testing.T) {
	d := models.NewDate(2024, time.May, 17)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-17"`, string(data))

	var parsed models.Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-17"`), &parsed))
	assert.True(t, d.Equal(parsed.Time))

	assert.Error(t, json.Unmarshal([]byte(`"17/05/2024"`), &parsed))
}

func TestOwnership(t *testing.T) {
	assert.Equal(t, models.Ownership{Relation: models.RelationFarmer, OwnerID: 3}, (&models.Product{FarmerID: 3}).Ownership())
	assert.Equal(t, models.Ownership{Relation: models.RelationBuyer, OwnerID: 4}, (&models.Order{BuyerID: 4}).Ownership())
	assert.Equal(t, models.Ownership{Relation: models.RelationUser, OwnerID: 5}, (&models.Review{UserID: 5}).Ownership())
	assert.Equal(t, models.Ownership{Relation: models.RelationSelf, OwnerID: 6}, (&models.User{ID: 6}).Ownership())
}

func TestUser_FullName(t *testing.T) {
	u := models.User{FirstName: "Ada", LastName: "Farmer"}
	assert.Equal(t, "Ada Farmer", u.FullName())
	assert.Equal(t, "", (&models.User{}).FullName())
}
