package domain

import (
	"fmt"
	"strings"
)

// LineKey identifies a purchasable variant inside a cart. Two lines with the
// same key are the same thing being bought and must be merged, not duplicated.
type LineKey struct {
	ModelID string
	Size    string
	Variant string
}

func (k LineKey) String() string {
	if k.Variant == "" {
		return k.ModelID + "/" + k.Size
	}
	return k.ModelID + "/" + k.Size + "/" + k.Variant
}

// ParseLineKey parses the "<model>/<size>[/<variant>]" form produced by String.
func ParseLineKey(s string) (LineKey, error) {
	parts := strings.Split(s, "/")
	switch len(parts) {
	case 2:
		return LineKey{ModelID: parts[0], Size: parts[1]}, nil
	case 3:
		return LineKey{ModelID: parts[0], Size: parts[1], Variant: parts[2]}, nil
	default:
		return LineKey{}, fmt.Errorf("invalid line key %q", s)
	}
}

type CartLine struct {
	ModelID   string `json:"model_id"`
	Size      string `json:"size"`
	Variant   string `json:"variant,omitempty"`
	Category  string `json:"category,omitempty"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	ImageURL  string `json:"image_url,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (l CartLine) Key() LineKey {
	return LineKey{ModelID: l.ModelID, Size: l.Size, Variant: l.Variant}
}

// Cart is an ordered sequence of lines. Order matters for display only;
// pricing is order-independent.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Subtotal is the sum of unit price times quantity over all lines, in minor units.
func (c Cart) Subtotal() int64 {
	var sum int64
	for _, l := range c.Lines {
		sum += l.UnitPrice * int64(l.Quantity)
	}
	return sum
}

// ItemCount is the total quantity across lines, used for badge display.
func (c Cart) ItemCount() int {
	var n int
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}
