package interpret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretUpdateCart(t *testing.T) {
	raw := `¡Perfecto! He añadido tu pizza. [UPDATE_CART:{"name":"Pizza","price":10,"quantity":2}]`

	result := Interpret(raw, nil, "")

	require.Len(t, result.Cart, 1)
	assert.Equal(t, "Pizza", result.Cart[0].Name)
	assert.Equal(t, 2, result.Cart[0].Quantity)
	assert.Equal(t, 10.0, result.Cart[0].Price)
	assert.NotContains(t, result.DisplayText, "[UPDATE_CART")
	assert.Equal(t, "¡Perfecto! He añadido tu pizza.", result.DisplayText)
	assert.True(t, result.ShowSummary, "cart change triggers summary")
}

func TestInterpretCartMerge(t *testing.T) {
	tests := []struct {
		name    string
		cart    Cart
		raw     string
		want    Cart
		changed int
	}{
		{
			name:    "exact match updates quantity",
			cart:    Cart{{Name: "Pizza Margarita", Price: 10, Quantity: 1}},
			raw:     `[UPDATE_CART:{"name":"pizza margarita","quantity":3}]`,
			want:    Cart{{Name: "Pizza Margarita", Price: 10, Quantity: 3}},
			changed: 1,
		},
		{
			name:    "substring match tolerates abbreviation",
			cart:    Cart{{Name: "Pizza Margarita Grande", Price: 12, Quantity: 1}},
			raw:     `[UPDATE_CART:{"name":"Margarita","quantity":2}]`,
			want:    Cart{{Name: "Pizza Margarita Grande", Price: 12, Quantity: 2}},
			changed: 1,
		},
		{
			name:    "zero quantity removes the line",
			cart:    Cart{{Name: "Pizza", Price: 10, Quantity: 2}, {Name: "Refresco", Price: 2, Quantity: 1}},
			raw:     `[UPDATE_CART:{"name":"Pizza","quantity":0}]`,
			want:    Cart{{Name: "Refresco", Price: 2, Quantity: 1}},
			changed: 1,
		},
		{
			name:    "zero quantity for unknown item is a no-op",
			cart:    Cart{{Name: "Pizza", Price: 10, Quantity: 1}},
			raw:     `[UPDATE_CART:{"name":"Hamburguesa","quantity":0}]`,
			want:    Cart{{Name: "Pizza", Price: 10, Quantity: 1}},
			changed: 1,
		},
		{
			name:    "absent quantity defaults to one",
			cart:    nil,
			raw:     `[UPDATE_CART:{"name":"Taco","price":3}]`,
			want:    Cart{{Name: "Taco", Price: 3, Quantity: 1}},
			changed: 1,
		},
		{
			name:    "positive price overrides existing",
			cart:    Cart{{Name: "Pizza", Price: 10, Quantity: 1}},
			raw:     `[UPDATE_CART:{"name":"Pizza","price":12.5,"quantity":1}]`,
			want:    Cart{{Name: "Pizza", Price: 12.5, Quantity: 1}},
			changed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Interpret(tt.raw, tt.cart, "")
			assert.Equal(t, tt.want, result.Cart)
			assert.Equal(t, tt.changed, result.ItemsAdded)
		})
	}
}

func TestInterpretMalformedCartJSONFallback(t *testing.T) {
	raw := `Añadido. [UPDATE_CART:{"name": "Pizza", "price": 10, "quantity": 2,}]`

	result := Interpret(raw, nil, "")

	require.Len(t, result.Cart, 1)
	assert.Equal(t, "Pizza", result.Cart[0].Name)
	assert.Equal(t, 10.0, result.Cart[0].Price)
	assert.Equal(t, 2, result.Cart[0].Quantity)
	assert.NotContains(t, result.DisplayText, "UPDATE_CART")
}

func TestInterpretUnparseableCartTagDiscarded(t *testing.T) {
	raw := `Listo. [UPDATE_CART:{sin json}]`

	result := Interpret(raw, nil, "")

	assert.Empty(t, result.Cart)
	assert.Zero(t, result.ItemsAdded)
	assert.Equal(t, "Listo.", result.DisplayText)
}

func TestInterpretCatalogPriceLookup(t *testing.T) {
	catalog := "*Pizzas*\n• Pizza Margarita $12.50 [DISPONIBLE]\n• Pizza Pepperoni $14 [DISPONIBLE]"
	raw := `[UPDATE_CART:{"name":"Pizza Pepperoni","price":0,"quantity":1}]`

	result := Interpret(raw, nil, catalog)

	require.Len(t, result.Cart, 1)
	assert.Equal(t, 14.0, result.Cart[0].Price)
}

func TestInterpretShowSummary(t *testing.T) {
	result := Interpret("Aquí tienes tu resumen [SHOW_SUMMARY]", nil, "")

	assert.True(t, result.ShowSummary)
	assert.Equal(t, "Aquí tienes tu resumen", result.DisplayText)
}

func TestInterpretProductCardLastWins(t *testing.T) {
	raw := `Te recomiendo: [PRODUCT:{"name":"Pizza","price":10,"description":"clásica"}] ` +
		`o mejor [PRODUCT:{"name":"Lasaña","price":15,"description":"de la casa"}]`

	result := Interpret(raw, nil, "")

	require.NotNil(t, result.Product)
	assert.Equal(t, "Lasaña", result.Product.Name)
	assert.NotContains(t, result.DisplayText, "[PRODUCT")
}

func TestInterpretOrderConfirmed(t *testing.T) {
	raw := `¡Gracias! [ORDER_CONFIRMED: {"customer_name":"Ana","address":"Calle 1","phone":"555","total":25}]`

	result := Interpret(raw, nil, "")

	require.NotNil(t, result.Order)
	assert.Equal(t, "Ana", result.Order.CustomerName)
	assert.Equal(t, "Calle 1", result.Order.Address)
	assert.Equal(t, "555", result.Order.Phone)
	assert.Equal(t, 25.0, result.Order.Total)
	assert.Equal(t, "¡Gracias!", result.DisplayText)
}

func TestInterpretMalformedOrderTagDiscarded(t *testing.T) {
	raw := `¡Gracias! [ORDER_CONFIRMED: {broken}]`

	result := Interpret(raw, nil, "")

	assert.Nil(t, result.Order)
	assert.False(t, strings.Contains(result.DisplayText, "ORDER_CONFIRMED"))
}

func TestInterpretTagsCaseInsensitive(t *testing.T) {
	raw := `Listo [update_cart:{"name":"Taco","price":3,"quantity":1}] [show_summary]`

	result := Interpret(raw, nil, "")

	require.Len(t, result.Cart, 1)
	assert.True(t, result.ShowSummary)
	assert.Equal(t, "Listo", result.DisplayText)
}

func TestCartTotal(t *testing.T) {
	cart := Cart{
		{Name: "Pizza", Price: 10, Quantity: 2},
		{Name: "Refresco", Price: 2.5, Quantity: 4},
	}
	assert.Equal(t, 30.0, cart.Total())
}
