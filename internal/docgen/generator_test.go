package docgen

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/legacy-capsule/capsule-backend/internal/catalog"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

func letterTemplate() catalog.Template {
	return catalog.Template{
		ID:     "memory-letter",
		Name:   "Memory Letter",
		Price:  decimal.RequireFromString("12.99"),
		Fields: []string{"title", "message", "signature"},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	g := NewGenerator()

	data, err := g.Render(letterTemplate(), types.Customization{
		Title:   "To Mom",
		Message: "Thank you for everything.\nLove always.",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected PDF magic, got %q", data[:8])
	}
}

func TestRenderDeterministicForSameInput(t *testing.T) {
	g := NewGenerator()
	tpl := letterTemplate()
	c := types.Customization{Title: "To Mom", Message: "With love"}

	a, err := g.Render(tpl, c)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	b, err := g.Render(tpl, c)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("expected identical output sizes, got %d and %d", len(a), len(b))
	}
}

func TestRenderEmptyCustomization(t *testing.T) {
	g := NewGenerator()

	data, err := g.Render(letterTemplate(), types.Customization{})
	if err != nil {
		t.Fatalf("render without customization: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected a template-only document")
	}
}

func TestMessageLinesStopAtBottomMargin(t *testing.T) {
	long := strings.TrimSuffix(strings.Repeat("line\n", 200), "\n")

	placed := messageLines(long, contentTop)

	// From y=700 at a 20pt pitch, lines fit while the baseline stays above
	// the 50pt bottom margin: 700, 680, ..., 60.
	if len(placed) != 33 {
		t.Fatalf("expected 33 placed lines, got %d", len(placed))
	}
	last := placed[len(placed)-1]
	if last.y <= bottomMargin {
		t.Fatalf("last baseline %f crosses the bottom margin", last.y)
	}
	if first := placed[0]; first.y != contentTop {
		t.Fatalf("first baseline should sit at %f, got %f", contentTop, first.y)
	}
}

func TestMessageLinesAllFitWhenShort(t *testing.T) {
	placed := messageLines("one\ntwo\nthree", contentTop)
	if len(placed) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(placed))
	}
	if placed[1].y != contentTop-linePitch {
		t.Fatalf("unexpected second baseline %f", placed[1].y)
	}
}

func TestRenderLongMessageStaysSinglePage(t *testing.T) {
	g := NewGenerator()
	long := strings.TrimSuffix(strings.Repeat("a memory worth keeping\n", 500), "\n")

	data, err := g.Render(letterTemplate(), types.Customization{Message: long})
	if err != nil {
		t.Fatalf("render long message: %v", err)
	}
	// A single /Page object plus the /Pages tree node.
	if pages := bytes.Count(data, []byte("/Type /Page")); pages > 2 {
		t.Fatalf("expected a single page, found %d page markers", pages)
	}
}

func TestFilenameShape(t *testing.T) {
	g := &Generator{
		now:    func() time.Time { return time.UnixMilli(1700000000000) },
		suffix: func() int64 { return 42 },
	}

	name := g.Filename("memory-letter")
	if name != "memory-letter-1700000000000-000042.pdf" {
		t.Fatalf("unexpected filename %q", name)
	}
	if !regexp.MustCompile(`^memory-letter-\d+-\d{6}\.pdf$`).MatchString(NewGenerator().Filename("memory-letter")) {
		t.Fatal("filename should be template id, millisecond timestamp, and suffix")
	}
}

func TestFilenameDistinctWithinMillisecond(t *testing.T) {
	draws := []int64{7, 8}
	g := &Generator{
		now: func() time.Time { return time.UnixMilli(1700000000000) },
		suffix: func() int64 {
			d := draws[0]
			draws = draws[1:]
			return d
		},
	}

	first := g.Filename("memory-letter")
	second := g.Filename("memory-letter")
	if first == second {
		t.Fatalf("same-millisecond generations must not collide, both got %q", first)
	}
}
