package docgen

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/legacy-capsule/capsule-backend/internal/catalog"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

// Letter-size page in points. All layout coordinates below are bottom-up
// (PDF native) and converted at draw time.
const (
	pageWidth  = 612.0
	pageHeight = 792.0

	marginLeft   = 50.0
	bottomMargin = 50.0

	titleY     = 750.0
	contentTop = 700.0

	titleSize   = 24.0
	headingSize = 18.0
	bodySize    = 12.0
	linePitch   = 20.0

	signatureFieldName = "signature"
	signatureWidth     = 200.0
	signatureHeight    = 20.0
	signatureGap       = 30.0
)

// suffixSpace bounds the random filename suffix to six digits.
const suffixSpace = 1_000_000

// Generator renders a personalized template into a single-page PDF artifact.
// Output depends only on the template and customization, so rendering is
// deterministic and safe to repeat.
type Generator struct {
	now    func() time.Time
	suffix func() int64
}

// NewGenerator builds a PDF generator using the wall clock for filenames.
func NewGenerator() *Generator {
	return &Generator{
		now:    time.Now,
		suffix: func() int64 { return rand.Int63n(suffixSpace) },
	}
}

// Filename derives the artifact name for a template: the template id, a
// millisecond timestamp, and a random suffix. The suffix keeps concurrent
// sessions buying the same template in the same millisecond from minting
// the same object name.
func (g *Generator) Filename(templateID string) string {
	return fmt.Sprintf("%s-%d-%06d.pdf", templateID, g.now().UnixMilli(), g.suffix())
}

// Render lays the customization onto a single Letter page. Message lines
// that would cross the bottom margin are dropped; the document never grows
// a second page.
func (g *Generator) Render(tpl catalog.Template, c types.Customization) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.SetTextColor(51, 51, 51)
	drawText(pdf, marginLeft, titleY, tpl.Name)

	y := contentTop

	if c.Title != "" {
		pdf.SetFont("Helvetica", "B", headingSize)
		pdf.SetTextColor(77, 77, 77)
		drawText(pdf, marginLeft, y, c.Title)
		y -= 2 * linePitch
	}

	if c.Message != "" {
		pdf.SetFont("Helvetica", "", bodySize)
		pdf.SetTextColor(51, 51, 51)
		for _, line := range messageLines(c.Message, y) {
			drawText(pdf, marginLeft, line.y, line.text)
			y = line.y - linePitch
		}
	}

	if tpl.HasField(signatureFieldName) {
		drawSignatureField(pdf, marginLeft, y-signatureGap)
	}

	if err := pdf.Error(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("docgen: render %s", tpl.ID))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("docgen: write %s", tpl.ID))
	}
	return buf.Bytes(), nil
}

type placedLine struct {
	text string
	y    float64
}

// messageLines places each newline-separated message line at its baseline,
// stopping once the next line would sit at or below the bottom margin.
func messageLines(message string, startY float64) []placedLine {
	var placed []placedLine
	y := startY
	for _, line := range strings.Split(message, "\n") {
		if y <= bottomMargin {
			break
		}
		placed = append(placed, placedLine{text: line, y: y})
		y -= linePitch
	}
	return placed
}

// drawText writes s with its baseline at the bottom-up coordinate y.
func drawText(pdf *fpdf.Fpdf, x, y float64, s string) {
	pdf.Text(x, pageHeight-y, s)
}

// drawSignatureField draws the bordered input region where the recipient
// signs a printed copy. y is the bottom-up coordinate of the field's bottom
// edge.
func drawSignatureField(pdf *fpdf.Fpdf, x, y float64) {
	pdf.SetDrawColor(128, 128, 128)
	pdf.SetFillColor(242, 242, 242)
	pdf.Rect(x, pageHeight-y-signatureHeight, signatureWidth, signatureHeight, "FD")
}
