// Package interpret extracts the control tags the model embeds in free
// text. These tags are the only channel for model-initiated side effects:
// cart mutation, product cards, summary display, and order confirmation.
// Parsing is deliberately forgiving since models routinely emit broken
// JSON inside the tags.
package interpret

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	updateCartPattern  = regexp.MustCompile(`(?is)\[UPDATE_CART:\s*(\{.*?\})\]`)
	productPattern     = regexp.MustCompile(`(?is)\[PRODUCT:\s*(\{.*?\})\]`)
	orderPattern       = regexp.MustCompile(`(?is)\[ORDER_CONFIRMED:\s*(\{.*?\})\]`)
	showSummaryPattern = regexp.MustCompile(`(?i)\[SHOW_SUMMARY\]`)

	// Best-effort field extraction for malformed tag JSON.
	namePattern     = regexp.MustCompile(`(?i)"name":\s*"(.*?)"`)
	pricePattern    = regexp.MustCompile(`(?i)"price":\s*(\d+(\.\d+)?)`)
	quantityPattern = regexp.MustCompile(`(?i)"quantity":\s*(\d+)`)
)

// ProductCard is a model-suggested item rendered as a visual card in the
// dashboard. When the model emits several, the last one wins.
type ProductCard struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// OrderConfirmation carries the checkout data the model collected during
// the closing protocol.
type OrderConfirmation struct {
	CustomerName string  `json:"customer_name"`
	Address      string  `json:"address"`
	Phone        string  `json:"phone"`
	Total        float64 `json:"total"`
}

// Result is the interpreted model output: display text with every tag
// stripped, plus the side effects the caller must apply.
type Result struct {
	DisplayText string
	Cart        Cart
	ItemsAdded  int
	ShowSummary bool
	Product     *ProductCard
	Order       *OrderConfirmation
}

// Interpret parses rawText, applies cart mutations against cart, and
// returns the cleaned text with the pending side effects. catalogText is
// the prompt's catalog block, used to recover prices the model omitted.
func Interpret(rawText string, cart Cart, catalogText string) Result {
	result := Result{Cart: cart}
	text := rawText

	for _, match := range updateCartPattern.FindAllStringSubmatch(text, -1) {
		item, ok := parseCartItem(match[1])
		if !ok {
			continue
		}
		if item.Price == 0 {
			item.Price = lookupCatalogPrice(catalogText, item.Name)
		}
		result.Cart = result.Cart.Apply(item)
		result.ItemsAdded++
	}
	text = updateCartPattern.ReplaceAllString(text, "")

	if showSummaryPattern.MatchString(text) || result.ItemsAdded > 0 {
		result.ShowSummary = true
	}
	text = showSummaryPattern.ReplaceAllString(text, "")

	for _, match := range productPattern.FindAllStringSubmatch(text, -1) {
		var card ProductCard
		if err := json.Unmarshal([]byte(match[1]), &card); err != nil {
			log.Debug().Str("raw", match[1]).Msg("discarding malformed product tag")
			continue
		}
		result.Product = &card
	}
	text = productPattern.ReplaceAllString(text, "")

	if match := orderPattern.FindStringSubmatch(text); match != nil {
		var order OrderConfirmation
		if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &order); err != nil {
			log.Warn().Err(err).Msg("discarding malformed order confirmation tag")
		} else {
			result.Order = &order
		}
	}
	text = orderPattern.ReplaceAllString(text, "")

	result.DisplayText = strings.TrimSpace(text)
	return result
}

// parseCartItem tries clean JSON first, then regex field extraction, since
// models often emit trailing commas or unquoted values inside the tag.
// An absent quantity means one item; an explicit zero means removal.
func parseCartItem(raw string) (CartItem, bool) {
	var parsed struct {
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Quantity *int    `json:"quantity"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil && parsed.Name != "" {
		item := CartItem{Name: parsed.Name, Price: parsed.Price, Quantity: 1}
		if parsed.Quantity != nil {
			item.Quantity = *parsed.Quantity
		}
		return item, true
	}

	nameMatch := namePattern.FindStringSubmatch(raw)
	if nameMatch == nil {
		log.Debug().Str("raw", raw).Msg("discarding unparseable cart tag")
		return CartItem{}, false
	}

	item := CartItem{Name: nameMatch[1], Quantity: 1}
	if m := pricePattern.FindStringSubmatch(raw); m != nil {
		item.Price, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := quantityPattern.FindStringSubmatch(raw); m != nil {
		item.Quantity, _ = strconv.Atoi(m[1])
	}
	return item, true
}
