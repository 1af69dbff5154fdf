package quotations

import (
	"net/http"

	"miragepos/frontend/sales"
	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/sequence"
	"miragepos/infrastructure/sqlite"
)

func QuotationsQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := ListQuotations(r.Context(), db)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

func QuotationQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		q, err := GetQuotation(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, q)
	}
}

// QuotationCartQueryHandler loads a quotation into a cart at current prices.
func QuotationCartQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		q, err := GetQuotation(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		cart, missing, err := LoadCart(r.Context(), db, q)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]any{"cart": cart, "missingProductIds": missing})
	}
}

func NextQuotationQueryHandler(alloc *sequence.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, err := NextQuotationNumber(r.Context(), alloc)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"quotationNo": number})
	}
}

func CreateQuotationCommandHandler(db *sqlite.DB, alloc *sequence.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sales.CheckoutRequest
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		q, err := CreateQuotation(r.Context(), db, alloc, req.Cart, req.Input)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, q)
	}
}

func UpdateQuotationCommandHandler(db *sqlite.DB, alloc *sequence.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		var req sales.CheckoutRequest
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		q, err := UpdateQuotation(r.Context(), db, alloc, id, req.Cart, req.Input)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, q)
	}
}

func DeleteQuotationCommandHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := DeleteQuotation(r.Context(), db, id); err != nil {
			respond.Error(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ConvertRequest is the body of the convert command.
type ConvertRequest struct {
	Input          sales.CheckoutInput `json:"input"`
	DeleteOriginal bool                `json:"deleteOriginal"`
}

func ConvertQuotationCommandHandler(db *sqlite.DB, alloc *sequence.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		var req ConvertRequest
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		sale, err := ConvertToSale(r.Context(), db, alloc, id, req.Input, req.DeleteOriginal)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, sale)
	}
}
