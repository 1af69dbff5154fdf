package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/money"
	"miragepos/infrastructure/sequence"
	"miragepos/infrastructure/sqlite"
)

// CheckoutCommandHandler saves the posted cart as a sale.
func CheckoutCommandHandler(db *sqlite.DB, alloc *sequence.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CheckoutRequest
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		sale, err := Checkout(r.Context(), db, alloc, req.Cart, req.Input)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		slog.Info("sales: checkout", slog.String("invoice_no", sale.InvoiceNo), slog.String("total", money.Format(sale.TotalAmount)))
		respond.JSON(w, http.StatusCreated, sale)
	}
}

// TotalsQueryHandler previews the totals of a cart without saving it.
func TotalsQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	in := req.Input
	respond.JSON(w, http.StatusOK, ComputeTotals(req.Cart.Lines, req.Cart.PriceType, in.DeliveryCharge, in.DiscountType, in.DiscountValue))
}

func SalesQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var dr DateRange
		q := r.URL.Query()
		for key, dst := range map[string]*time.Time{"from": &dr.From, "to": &dr.To} {
			v := q.Get(key)
			if v == "" {
				continue
			}
			t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
			if err != nil {
				respond.Error(w, r, apperr.Validation("invalid %s date %q", key, v))
				return
			}
			*dst = t
		}
		if !dr.To.IsZero() {
			dr.To = dr.To.AddDate(0, 0, 1)
		}
		list, err := ListSalesByDate(r.Context(), db, dr)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

func SaleQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		sale, err := GetSale(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, sale)
	}
}

// EditSaleCommandHandler replaces a sale, keeping its invoice number.
func EditSaleCommandHandler(db *sqlite.DB, alloc *sequence.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		var req CheckoutRequest
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		sale, err := EditSale(r.Context(), db, alloc, id, req.Cart, req.Input)
		if errors.Is(err, ErrEditIncomplete) {
			respond.Problem(w, http.StatusInternalServerError, "Edit Incomplete",
				"the original sale was removed and the replacement is pending recovery")
			return
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, sale)
	}
}

// DeleteSaleCommandHandler deletes a sale and restocks its items.
func DeleteSaleCommandHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		sale, err := DeleteSale(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		slog.Info("sales: deleted", slog.String("invoice_no", sale.InvoiceNo))
		w.WriteHeader(http.StatusNoContent)
	}
}

// NextInvoiceQueryHandler previews the next invoice number. It is not reserved.
func NextInvoiceQueryHandler(alloc *sequence.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, err := alloc.Next(r.Context(), sequence.KindInvoice)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"invoiceNo": number})
	}
}

func PendingEditsQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		edits, err := PendingEdits(r.Context(), db)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, edits)
	}
}

func RecoverEditsCommandHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := RecoverPendingEdits(r.Context(), db)
		if err != nil {
			slog.Error("sales: recovery left edits pending", slog.Int("recovered", n), slog.Any("err", err))
			respond.Problem(w, http.StatusInternalServerError, "Recovery Incomplete", "some edits are still pending")
			return
		}
		respond.JSON(w, http.StatusOK, map[string]int{"recovered": n})
	}
}

// AbandonEditCommandHandler restores the original sale of a pending edit.
func AbandonEditCommandHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sale, err := AbandonEdit(r.Context(), db, chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, sale)
	}
}
