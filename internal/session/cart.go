package session

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/taigrr/garment/internal/api"
)

// Cart is the shopping cart. The zero value is empty and ready to use.
type Cart struct {
	mu    sync.Mutex
	items []api.Product
}

func sizeID(p api.Product) string {
	if p.Size == nil {
		return ""
	}
	return p.Size.ID
}

// Add appends p unless the same product in the same size is already present.
// It reports whether the cart changed.
func (c *Cart) Add(p api.Product) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if it.ID == p.ID && sizeID(it) == sizeID(p) {
			return false
		}
	}
	c.items = append(c.items, p)
	return true
}

// Remove drops the entry for productID in sizeID and reports whether one existed.
func (c *Cart) Remove(productID, size string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0]
	for _, it := range c.items {
		if it.ID == productID && sizeID(it) == size {
			continue
		}
		kept = append(kept, it)
	}
	removed := len(kept) != len(c.items)
	clear(c.items[len(kept):])
	c.items = kept
	return removed
}

// RemoveAll empties the cart.
func (c *Cart) RemoveAll() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Items returns a copy of the cart contents in insertion order.
func (c *Cart) Items() []api.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.Product(nil), c.items...)
}

// Len returns the number of entries.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Total sums the item prices.
func (c *Cart) Total() (float64, error) {
	var sum float64
	for _, it := range c.Items() {
		v, err := strconv.ParseFloat(it.Price, 64)
		if err != nil {
			return 0, fmt.Errorf("price of %s: %w", it.ID, err)
		}
		sum += v
	}
	return sum, nil
}

func (c *Cart) set(items []api.Product) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}
