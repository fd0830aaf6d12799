package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/legacy-capsule/capsule-backend/pkg/enums"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
)

// Template is one purchasable document template. Immutable once published.
type Template struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Fields      []string        `json:"fields"`
}

// HasField reports whether the template's personalization field list contains name.
func (t Template) HasField(name string) bool {
	for _, f := range t.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Bundle groups templates under a discounted sale price.
type Bundle struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	Templates     []string        `json:"templates"`
	Description   string          `json:"description"`
}

// Snapshot is the read-only catalog loaded at startup. It is never mutated
// after Load, so concurrent reads need no locking.
type Snapshot struct {
	templates   []Template
	bundles     []Bundle
	templateIdx map[string]int
	bundleIdx   map[string]int
}

// NewSnapshot validates the given templates and bundles and builds lookup
// indexes. A bundle referencing a template id absent from the catalog is
// rejected here, before it can ever reach checkout.
func NewSnapshot(templates []Template, bundles []Bundle) (*Snapshot, error) {
	s := &Snapshot{
		templates:   templates,
		bundles:     bundles,
		templateIdx: make(map[string]int, len(templates)),
		bundleIdx:   make(map[string]int, len(bundles)),
	}

	for i, t := range templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template %d: id is required", i)
		}
		if _, dup := s.templateIdx[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		if t.Name == "" {
			return nil, fmt.Errorf("template %q: name is required", t.ID)
		}
		if !t.Price.IsPositive() {
			return nil, fmt.Errorf("template %q: price must be positive", t.ID)
		}
		s.templateIdx[t.ID] = i
	}

	for i, b := range bundles {
		if b.ID == "" {
			return nil, fmt.Errorf("bundle %d: id is required", i)
		}
		if _, dup := s.bundleIdx[b.ID]; dup {
			return nil, fmt.Errorf("duplicate bundle id %q", b.ID)
		}
		if !b.SalePrice.IsPositive() {
			return nil, fmt.Errorf("bundle %q: sale price must be positive", b.ID)
		}
		if b.SalePrice.GreaterThan(b.OriginalPrice) {
			return nil, fmt.Errorf("bundle %q: sale price exceeds original price", b.ID)
		}
		if len(b.Templates) == 0 {
			return nil, fmt.Errorf("bundle %q: no templates", b.ID)
		}
		for _, tid := range b.Templates {
			if _, ok := s.templateIdx[tid]; !ok {
				return nil, fmt.Errorf("bundle %q references unknown template %q", b.ID, tid)
			}
		}
		s.bundleIdx[b.ID] = i
	}

	return s, nil
}

// Templates returns the published templates in catalog order.
func (s *Snapshot) Templates() []Template {
	return s.templates
}

// Bundles returns the published bundles in catalog order.
func (s *Snapshot) Bundles() []Bundle {
	return s.bundles
}

// TemplateByID resolves a template id.
func (s *Snapshot) TemplateByID(id string) (Template, error) {
	if i, ok := s.templateIdx[id]; ok {
		return s.templates[i], nil
	}
	return Template{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("template %q not found", id))
}

// BundleByID resolves a bundle id.
func (s *Snapshot) BundleByID(id string) (Bundle, error) {
	if i, ok := s.bundleIdx[id]; ok {
		return s.bundles[i], nil
	}
	return Bundle{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("bundle %q not found", id))
}

// Price resolves the authoritative price for a line item. Client-submitted
// prices never reach the payment provider; this lookup is the only source.
func (s *Snapshot) Price(kind enums.ItemKind, id string) (decimal.Decimal, error) {
	switch kind {
	case enums.ItemKindTemplate:
		t, err := s.TemplateByID(id)
		if err != nil {
			return decimal.Zero, err
		}
		return t.Price, nil
	case enums.ItemKindBundle:
		b, err := s.BundleByID(id)
		if err != nil {
			return decimal.Zero, err
		}
		return b.SalePrice, nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown item kind %q", kind))
	}
}

// ExpandTemplates resolves a line item into the template ids it fulfills:
// the item itself for templates, the constituent list for bundles.
func (s *Snapshot) ExpandTemplates(kind enums.ItemKind, id string) ([]string, error) {
	switch kind {
	case enums.ItemKindTemplate:
		if _, err := s.TemplateByID(id); err != nil {
			return nil, err
		}
		return []string{id}, nil
	case enums.ItemKindBundle:
		b, err := s.BundleByID(id)
		if err != nil {
			return nil, err
		}
		return append([]string{}, b.Templates...), nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown item kind %q", kind))
	}
}

// Cents converts a catalog price to integer minor currency units, rounding
// half up so per-line drift never exceeds one cent.
func Cents(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
