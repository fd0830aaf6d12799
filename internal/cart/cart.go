package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/legacy-capsule/capsule-backend/internal/catalog"
	"github.com/legacy-capsule/capsule-backend/pkg/enums"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
)

// Item is one distinct catalog entry in a cart. Carts hold at most one of
// each (kind, id) pair; there are no quantities for digital goods.
type Item struct {
	Kind enums.ItemKind `json:"kind"`
	ID   string         `json:"id"`
}

// Cart is an ordered collection of distinct line items. The zero value is an
// empty cart ready for use.
type Cart struct {
	items []Item
}

// New builds a cart from the given items, dropping duplicates while keeping
// first-seen order.
func New(items ...Item) *Cart {
	c := &Cart{}
	for _, it := range items {
		c.Add(it)
	}
	return c
}

// Add appends item unless an equal (kind, id) pair is already present.
// Adding an existing item is a no-op, so Add is idempotent.
func (c *Cart) Add(item Item) {
	if c.Contains(item) {
		return
	}
	c.items = append(c.items, item)
}

// Remove deletes the matching item. Removing an absent item is a no-op.
func (c *Cart) Remove(item Item) {
	for i, it := range c.items {
		if it == item {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Contains reports whether an equal (kind, id) pair is in the cart.
func (c *Cart) Contains(item Item) bool {
	for _, it := range c.items {
		if it == item {
			return true
		}
	}
	return false
}

// Items returns the line items in insertion order.
func (c *Cart) Items() []Item {
	return c.items
}

// Len returns the number of distinct line items.
func (c *Cart) Len() int {
	return len(c.items)
}

// PricedItem is a line item with its catalog price attached.
type PricedItem struct {
	Item
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// Price resolves every line against the catalog snapshot and returns the
// priced lines plus the cart total in cents. Client-submitted prices are
// never consulted; an item missing from the catalog fails the whole cart.
func Price(c *Cart, snap *catalog.Snapshot) ([]PricedItem, int64, error) {
	if c == nil || c.Len() == 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	priced := make([]PricedItem, 0, c.Len())
	total := decimal.Zero
	for _, it := range c.Items() {
		if !it.Kind.IsValid() {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown item kind %q", it.Kind))
		}
		price, err := snap.Price(it.Kind, it.ID)
		if err != nil {
			return nil, 0, err
		}
		name := it.ID
		switch it.Kind {
		case enums.ItemKindTemplate:
			if t, terr := snap.TemplateByID(it.ID); terr == nil {
				name = t.Name
			}
		case enums.ItemKindBundle:
			if b, berr := snap.BundleByID(it.ID); berr == nil {
				name = b.Name
			}
		}
		priced = append(priced, PricedItem{Item: it, Name: name, PriceCents: catalog.Cents(price)})
		total = total.Add(price)
	}
	return priced, catalog.Cents(total), nil
}
