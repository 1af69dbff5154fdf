package documents

import (
	"log/slog"
	"net/http"

	"miragepos/frontend/quotations"
	"miragepos/frontend/sales"
	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/sqlite"
)

func writePDF(w http.ResponseWriter, r *http.Request, doc Document) {
	pdf, err := RenderPDF(doc)
	if err != nil {
		slog.Error("documents: render failed", slog.String("number", doc.Number), slog.Any("err", err))
		respond.Problem(w, http.StatusInternalServerError, "Internal Error", "failed to render document")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+doc.Number+`.pdf"`)
	_, _ = w.Write(pdf)
}

// InvoicePDFQueryHandler reprints a saved sale.
func InvoicePDFQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		sale, err := sales.GetSale(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		writePDF(w, r, FromSale(sale))
	}
}

func QuotationPDFQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		q, err := quotations.GetQuotation(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		writePDF(w, r, FromQuotation(q))
	}
}
