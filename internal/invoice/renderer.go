package invoice

import (
	"fmt"
	"time"
	"unicode"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/internal/domain/entity"
	"github.com/sweetcrumb/bakebill-api/internal/domain/enum"
)

var (
	headerBg = props.Color{Red: 60, Green: 60, Blue: 60}
	stripeBg = props.Color{Red: 242, Green: 242, Blue: 242}
	bannerBg = props.Color{Red: 255, Green: 243, Blue: 205}
	white    = props.Color{Red: 255, Green: 255, Blue: 255}
	totalFg  = props.Color{Red: 33, Green: 33, Blue: 33}
)

// Renderer lays out a Bill as a branded PDF invoice. Sections flow top to
// bottom in fixed order; a section never overlaps the one before it.
type Renderer struct {
	business config.BusinessConfig
	scratch  *Scratch
}

// NewRenderer creates a renderer. scratch owns the logo cache and the
// on-disk copies of generated documents.
func NewRenderer(business config.BusinessConfig, scratch *Scratch) *Renderer {
	return &Renderer{business: business, scratch: scratch}
}

// Render produces the invoice bytes and a collision-resistant suggested
// filename. A copy is written to the scratch dir as a side effect; failure
// to write the copy does not fail the render.
func (r *Renderer) Render(bill *entity.Bill) ([]byte, string, error) {
	cfg := marotocfg.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		Build()

	m := maroto.New(cfg)

	m.AddRows(r.headerRows()...)
	m.AddRows(r.metaRows(bill)...)
	m.AddRows(r.customerRows(bill)...)
	if bill.LoyaltyApplied {
		m.AddRows(r.loyaltyBanner(bill)...)
	}
	m.AddRows(r.tableHeaderRow())
	m.AddRows(r.itemRows(bill)...)
	m.AddRows(r.totalsRows(bill)...)
	m.AddRows(r.footerRows()...)

	doc, err := m.Generate()
	if err != nil {
		return nil, "", fmt.Errorf("invoice generation failed: %w", err)
	}

	filename := fmt.Sprintf("invoice_%s_%d.pdf", bill.BillNumber, time.Now().Unix())
	data := doc.GetBytes()

	if r.scratch != nil {
		r.scratch.SaveCopy(filename, data)
	}
	return data, filename, nil
}

// headerRows renders the brand block. If the logo cannot be fetched the
// business initial stands in; decorative assets never abort generation.
func (r *Renderer) headerRows() []core.Row {
	brand := col.New(9).Add(
		text.New(sanitizeText(r.business.Name), props.Text{Size: 16, Style: fontstyle.Bold}),
		text.New(sanitizeText(r.business.Address), props.Text{Top: 8, Size: 9}),
		text.New(sanitizeText(r.business.Phone), props.Text{Top: 12, Size: 9}),
	)

	logoCol := r.logoCol()

	return []core.Row{
		row.New(18).Add(logoCol, brand),
		line.NewRow(3),
	}
}

func (r *Renderer) logoCol() core.Col {
	if r.scratch != nil {
		if path, ok := r.scratch.LogoPath(); ok {
			return image.NewFromFileCol(3, path, props.Rect{Center: true, Percent: 90})
		}
	}
	glyph := "*"
	if name := r.business.Name; name != "" {
		glyph = string([]rune(name)[0])
	}
	return text.NewCol(3, glyph, props.Text{Size: 24, Style: fontstyle.Bold, Align: align.Center})
}

func (r *Renderer) metaRows(bill *entity.Bill) []core.Row {
	return []core.Row{
		row.New(8).Add(
			text.NewCol(6, "Bill No: "+bill.BillNumber, props.Text{Size: 10, Style: fontstyle.Bold}),
			text.NewCol(6, "Date: "+bill.CreatedAt.Format("02 Jan 2006 15:04"), props.Text{Size: 10, Align: align.Right}),
		),
	}
}

func (r *Renderer) customerRows(bill *entity.Bill) []core.Row {
	box := row.New(10).Add(
		text.NewCol(6, "Customer: "+sanitizeText(bill.CustomerName), props.Text{Size: 10, Top: 2}),
		text.NewCol(6, "Phone: "+bill.CustomerPhone, props.Text{Size: 10, Top: 2, Align: align.Right}),
	)
	box.WithStyle(&props.Cell{BackgroundColor: &stripeBg})
	return []core.Row{box}
}

func (r *Renderer) loyaltyBanner(bill *entity.Bill) []core.Row {
	msg := sanitizeText(bill.LoyaltyMessage)
	if msg == "" {
		msg = fmt.Sprintf("Loyalty reward applied: %d%% off your cakes!", bill.LoyaltyDiscountPercentage)
	}
	banner := row.New(8).Add(
		text.NewCol(12, msg, props.Text{Size: 10, Style: fontstyle.BoldItalic, Align: align.Center, Top: 1.5}),
	)
	banner.WithStyle(&props.Cell{BackgroundColor: &bannerBg})
	return []core.Row{banner}
}

func (r *Renderer) tableHeaderRow() core.Row {
	header := row.New(7).Add(
		text.NewCol(5, "Item", props.Text{Size: 9, Style: fontstyle.Bold, Color: &white, Left: 1, Top: 1}),
		text.NewCol(1, "Qty", props.Text{Size: 9, Style: fontstyle.Bold, Color: &white, Align: align.Center, Top: 1}),
		text.NewCol(2, "Price", props.Text{Size: 9, Style: fontstyle.Bold, Color: &white, Align: align.Right, Top: 1}),
		text.NewCol(2, "Discount", props.Text{Size: 9, Style: fontstyle.Bold, Color: &white, Align: align.Right, Top: 1}),
		text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold, Color: &white, Align: align.Right, Right: 1, Top: 1}),
	)
	header.WithStyle(&props.Cell{BackgroundColor: &headerBg})
	return header
}

// itemRows emits exactly one table row per line item, preserving input
// order. Alternating backgrounds aid readability.
func (r *Renderer) itemRows(bill *entity.Bill) []core.Row {
	rows := make([]core.Row, 0, len(bill.Items))
	for i, item := range bill.Items {
		name := sanitizeText(item.Name)
		if item.Weight != nil {
			name = fmt.Sprintf("%s (%.2f kg)", name, *item.Weight)
		}

		tr := row.New(6).Add(
			text.NewCol(5, name, props.Text{Size: 9, Left: 1, Top: 1}),
			text.NewCol(1, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 9, Align: align.Center, Top: 1}),
			text.NewCol(2, formatAmount(item.UnitPrice), props.Text{Size: 9, Align: align.Right, Top: 1}),
			text.NewCol(2, formatLineDiscount(item), props.Text{Size: 9, Align: align.Right, Top: 1}),
			text.NewCol(2, formatAmount(item.LineTotal), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 1}),
		)
		if i%2 == 1 {
			tr.WithStyle(&props.Cell{BackgroundColor: &stripeBg})
		}
		rows = append(rows, tr)
	}
	return rows
}

// totalsRows renders the totals box. The discount line only appears when a
// discount was actually applied.
func (r *Renderer) totalsRows(bill *entity.Bill) []core.Row {
	rows := []core.Row{
		line.NewRow(3),
		row.New(6).Add(
			text.NewCol(10, "Subtotal", props.Text{Size: 10, Align: align.Right}),
			text.NewCol(2, formatAmount(bill.Subtotal), props.Text{Size: 10, Align: align.Right, Right: 1}),
		),
	}
	if bill.TotalDiscount > 0 {
		rows = append(rows, row.New(6).Add(
			text.NewCol(10, "Discount", props.Text{Size: 10, Align: align.Right}),
			text.NewCol(2, "-"+formatAmount(bill.TotalDiscount), props.Text{Size: 10, Align: align.Right, Right: 1}),
		))
	}
	totalRow := row.New(9).Add(
		text.NewCol(10, "TOTAL", props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right, Top: 1.5}),
		text.NewCol(2, formatAmount(bill.Total), props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right, Right: 1, Top: 1.5, Color: &totalFg}),
	)
	totalRow.WithStyle(&props.Cell{BackgroundColor: &stripeBg})
	rows = append(rows, totalRow)
	return rows
}

func (r *Renderer) footerRows() []core.Row {
	return []core.Row{
		row.New(12).Add(
			text.NewCol(12, "Thank you for your purchase!", props.Text{Size: 9, Style: fontstyle.Italic, Align: align.Center, Top: 6}),
		),
	}
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}

func formatLineDiscount(item entity.LineItem) string {
	if item.Discount == 0 {
		return "-"
	}
	if item.DiscountType == enum.DiscountTypePercentage {
		return fmt.Sprintf("%.0f%%", item.Discount)
	}
	return fmt.Sprintf("%.2f", item.Discount)
}

// sanitizeText strips non-printable and wide symbol runes before layout;
// the PDF engine cannot guarantee glyph coverage for arbitrary symbols.
func sanitizeText(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if !unicode.IsPrint(r) {
			continue
		}
		if unicode.Is(unicode.So, r) || r > 0xFFFF {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
