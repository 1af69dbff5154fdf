package vendors

import (
	"net/http"

	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/sqlite"
)

func VendorsQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := ListVendors(r.Context(), db)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

func CreateVendorCommandHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in VendorInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, r, err)
			return
		}
		v, err := CreateVendor(r.Context(), db, in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, v)
	}
}

func DeleteVendorCommandHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := DeleteVendor(r.Context(), db, id); err != nil {
			respond.Error(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
