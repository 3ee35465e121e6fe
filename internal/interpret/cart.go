package interpret

import (
	"fmt"
	"regexp"
	"strings"
)

// CartItem is one line of the in-progress order kept per conversation.
type CartItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Cart is the mutable order-in-progress. It lives in the conversation's
// short-term state and is rebuilt from scratch on order confirmation.
type Cart []CartItem

// Total sums price times quantity across all lines.
func (c Cart) Total() float64 {
	var total float64
	for _, item := range c {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Apply merges a model-requested cart update. Matching is case-insensitive:
// exact name first, then containment in either direction, which tolerates
// the model abbreviating catalog names. Quantity is set, not added; zero or
// negative quantity removes the line.
func (c Cart) Apply(update CartItem) Cart {
	searchName := strings.ToLower(strings.TrimSpace(update.Name))

	idx := -1
	for i, item := range c {
		if strings.ToLower(strings.TrimSpace(item.Name)) == searchName {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, item := range c {
			itemName := strings.ToLower(item.Name)
			if strings.Contains(itemName, searchName) || strings.Contains(searchName, itemName) {
				idx = i
				break
			}
		}
	}

	if idx >= 0 {
		if update.Quantity <= 0 {
			return append(c[:idx:idx], c[idx+1:]...)
		}
		c[idx].Quantity = update.Quantity
		if update.Price > 0 {
			c[idx].Price = update.Price
		}
		return c
	}

	if update.Quantity > 0 {
		return append(c, update)
	}
	return c
}

// lookupCatalogPrice recovers a price the model omitted by scanning the
// catalog block of the prompt for "<name> ... $<amount>".
func lookupCatalogPrice(catalogText, name string) float64 {
	if catalogText == "" || name == "" {
		return 0
	}
	pattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(name) + `.*?\$(\d+(\.\d+)?)`)
	if err != nil {
		return 0
	}
	match := pattern.FindStringSubmatch(catalogText)
	if match == nil {
		return 0
	}
	var price float64
	if _, err := fmt.Sscanf(match[1], "%f", &price); err != nil {
		return 0
	}
	return price
}
