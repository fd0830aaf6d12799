package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/legacy-capsule/capsule-backend/pkg/errors"
)

//go:embed catalog.json
var defaultCatalog []byte

type templateDoc struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Fields      []string `json:"fields"`
}

type bundleDoc struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	OriginalPrice string   `json:"originalPrice"`
	SalePrice     string   `json:"salePrice"`
	Templates     []string `json:"templates"`
	Description   string   `json:"description"`
}

type catalogDoc struct {
	Templates []templateDoc `json:"templates"`
	Bundles   []bundleDoc   `json:"bundles"`
}

// Load builds a snapshot from the catalog file at path, falling back to the
// embedded defaults when path is empty.
func Load(path string) (*Snapshot, error) {
	raw := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, fmt.Sprintf("catalog: read %s", path))
		}
		raw = b
	}
	return Parse(raw)
}

// Parse decodes and validates a JSON catalog document.
func Parse(raw []byte) (*Snapshot, error) {
	var doc catalogDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "catalog: decode")
	}

	templates := make([]Template, 0, len(doc.Templates))
	for _, t := range doc.Templates {
		price, err := decimal.NewFromString(t.Price)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, fmt.Sprintf("catalog: template %q price", t.ID))
		}
		templates = append(templates, Template{
			ID:          t.ID,
			Name:        t.Name,
			Price:       price,
			Description: t.Description,
			Category:    t.Category,
			Fields:      t.Fields,
		})
	}

	bundles := make([]Bundle, 0, len(doc.Bundles))
	for _, b := range doc.Bundles {
		original, err := decimal.NewFromString(b.OriginalPrice)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, fmt.Sprintf("catalog: bundle %q original price", b.ID))
		}
		sale, err := decimal.NewFromString(b.SalePrice)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, fmt.Sprintf("catalog: bundle %q sale price", b.ID))
		}
		bundles = append(bundles, Bundle{
			ID:            b.ID,
			Name:          b.Name,
			OriginalPrice: original,
			SalePrice:     sale,
			Templates:     b.Templates,
			Description:   b.Description,
		})
	}

	return NewSnapshot(templates, bundles)
}
