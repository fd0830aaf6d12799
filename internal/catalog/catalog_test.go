package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/legacy-capsule/capsule-backend/pkg/enums"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	snap, err := Load("")
	if err != nil {
		t.Fatalf("load embedded catalog: %v", err)
	}
	if got := len(snap.Templates()); got != 8 {
		t.Fatalf("expected 8 templates, got %d", got)
	}
	if got := len(snap.Bundles()); got != 3 {
		t.Fatalf("expected 3 bundles, got %d", got)
	}

	letter, err := snap.TemplateByID("memory-letter")
	if err != nil {
		t.Fatalf("memory-letter missing: %v", err)
	}
	if !letter.Price.Equal(decimal.RequireFromString("12.99")) {
		t.Fatalf("unexpected memory-letter price %s", letter.Price)
	}
	if !letter.HasField("signature") {
		t.Fatal("memory-letter should carry a signature field")
	}

	will, err := snap.TemplateByID("will-template")
	if err != nil {
		t.Fatalf("will-template missing: %v", err)
	}
	if !will.HasField("signature") {
		t.Fatal("will-template should carry a signature field")
	}
}

func TestSnapshotRejectsBundleWithUnknownTemplate(t *testing.T) {
	_, err := NewSnapshot(
		[]Template{{ID: "memory-letter", Name: "Memory Letter", Price: decimal.RequireFromString("12.99")}},
		[]Bundle{{
			ID:            "broken",
			Name:          "Broken Bundle",
			OriginalPrice: decimal.RequireFromString("20.00"),
			SalePrice:     decimal.RequireFromString("10.00"),
			Templates:     []string{"memory-letter", "does-not-exist"},
		}},
	)
	if err == nil {
		t.Fatal("expected bundle with unknown template to be rejected")
	}
}

func TestSnapshotRejectsDuplicateIDs(t *testing.T) {
	_, err := NewSnapshot(
		[]Template{
			{ID: "memory-letter", Name: "A", Price: decimal.RequireFromString("1.00")},
			{ID: "memory-letter", Name: "B", Price: decimal.RequireFromString("2.00")},
		},
		nil,
	)
	if err == nil {
		t.Fatal("expected duplicate template id to be rejected")
	}
}

func TestSnapshotRejectsSaleAboveOriginal(t *testing.T) {
	_, err := NewSnapshot(
		[]Template{{ID: "t", Name: "T", Price: decimal.RequireFromString("5.00")}},
		[]Bundle{{
			ID:            "b",
			Name:          "B",
			OriginalPrice: decimal.RequireFromString("10.00"),
			SalePrice:     decimal.RequireFromString("12.00"),
			Templates:     []string{"t"},
		}},
	)
	if err == nil {
		t.Fatal("expected sale price above original to be rejected")
	}
}

func TestPriceBundleUsesSalePrice(t *testing.T) {
	snap, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	price, err := snap.Price(enums.ItemKindBundle, "family-legacy")
	if err != nil {
		t.Fatalf("price family-legacy: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("49.99")) {
		t.Fatalf("expected sale price 49.99, got %s", price)
	}
}

func TestPriceUnknownID(t *testing.T) {
	snap, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	_, err = snap.Price(enums.ItemKindTemplate, "nope")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestExpandTemplates(t *testing.T) {
	snap, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	single, err := snap.ExpandTemplates(enums.ItemKindTemplate, "time-capsule")
	if err != nil {
		t.Fatalf("expand template: %v", err)
	}
	if len(single) != 1 || single[0] != "time-capsule" {
		t.Fatalf("unexpected expansion %v", single)
	}

	many, err := snap.ExpandTemplates(enums.ItemKindBundle, "milestone")
	if err != nil {
		t.Fatalf("expand bundle: %v", err)
	}
	want := []string{"birthday-card", "wedding-memory", "baby-journal"}
	if len(many) != len(want) {
		t.Fatalf("unexpected expansion %v", many)
	}
	for i := range want {
		if many[i] != want[i] {
			t.Fatalf("expansion mismatch at %d: got %v", i, many)
		}
	}
}

func TestCentsRounding(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"12.99", 1299},
		{"0.005", 1},
		{"0.004", 0},
		{"49.99", 4999},
		{"100", 10000},
	}
	for _, tc := range cases {
		if got := Cents(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Fatalf("Cents(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
