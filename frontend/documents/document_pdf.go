// Package documents prints invoices and quotations as PDF with the document
// number as a Code128 barcode.
package documents

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"miragepos/infrastructure/money"
	"miragepos/models"
)

func subtotal(items []models.LineItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(money.D(it.Total))
	}
	return money.Float(sum)
}

func FromSale(s models.Sale) Document {
	return Document{
		Title:           "INVOICE",
		Number:          s.InvoiceNo,
		Date:            s.Date,
		CustomerType:    s.CustomerType,
		CustomerName:    s.CustomerName,
		CustomerAddress: s.CustomerAddress,
		Items:           s.Items,
		Subtotal:        subtotal(s.Items),
		DiscountAmount:  s.DiscountAmount,
		DeliveryCharge:  s.DeliveryCharge,
		TotalAmount:     s.TotalAmount,
	}
}

func FromQuotation(q models.Quotation) Document {
	return Document{
		Title:           "QUOTATION",
		Number:          q.QuotationNo,
		Date:            q.Date,
		CustomerType:    q.CustomerType,
		CustomerName:    q.CustomerName,
		CustomerAddress: q.CustomerAddress,
		Items:           q.Items,
		Subtotal:        subtotal(q.Items),
		DiscountAmount:  q.DiscountAmount,
		DeliveryCharge:  q.DeliveryCharge,
		TotalAmount:     q.TotalAmount,
	}
}

// RenderPDF prints doc on one A4 page, continuing onto more pages for long
// item lists.
func RenderPDF(doc Document) ([]byte, error) {
	number := strings.TrimSpace(doc.Number)
	if number == "" {
		return nil, fmt.Errorf("documents: no document number")
	}
	barcodePNG, err := renderCode128PNG(number, 900, 160)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title+" "+number, false)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, ShopName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, doc.Title, "", 1, "L", false, 0, "")

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("doc-barcode", opt, bytes.NewReader(barcodePNG))
	pageW, _ := pdf.GetPageSize()
	pdf.ImageOptions("doc-barcode", pageW-15-70, 15, 70, 14, false, opt, 0, "")
	pdf.SetXY(pageW-15-70, 30)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(70, 5, number, "", 1, "C", false, 0, "")

	customer := strings.TrimSpace(doc.CustomerName)
	if customer == "" {
		customer = WalkInLabel
	}
	pdf.SetY(40)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Date: "+doc.Date.Local().Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Customer: "+customer, "", 1, "L", false, 0, "")
	if addr := strings.TrimSpace(doc.CustomerAddress); addr != "" {
		pdf.MultiCell(0, 6, "Address: "+addr, "", "L", false)
	}
	if doc.CustomerType != "" {
		pdf.CellFormat(0, 6, "Price type: "+doc.CustomerType, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{90, 20, 35, 35}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Item", "Qty", "Unit Price", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range doc.Items {
		pdf.CellFormat(widths[0], 7, it.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, strconv.FormatInt(it.Qty, 10), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, money.Format(it.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money.Format(it.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	labelW := widths[0] + widths[1] + widths[2]
	row := func(label string, v float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(labelW, 7, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money.Format(v), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
	row("Subtotal", doc.Subtotal, false)
	if doc.DiscountAmount > 0 {
		row("Discount", -doc.DiscountAmount, false)
	}
	if doc.DeliveryCharge > 0 {
		row("Delivery", doc.DeliveryCharge, false)
	}
	row("Total", doc.TotalAmount, true)

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	normalized := toNRGBA(scaled)
	var barcodePNG bytes.Buffer
	if err := png.Encode(&barcodePNG, normalized); err != nil {
		return nil, err
	}
	return barcodePNG.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
