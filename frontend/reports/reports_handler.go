package reports

import (
	"net/http"
	"time"

	"miragepos/frontend/sales"
	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/sqlite"
)

// parseRange reads optional from/to query dates (YYYY-MM-DD, local time).
// to is inclusive of that whole day.
func parseRange(r *http.Request) (sales.DateRange, error) {
	var out sales.DateRange
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			return out, apperr.Validation("invalid from date %q", v)
		}
		out.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			return out, apperr.Validation("invalid to date %q", v)
		}
		out.To = t.AddDate(0, 0, 1)
	}
	return out, nil
}

func ProfitAndLossQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dr, err := parseRange(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		pl, err := ProfitAndLossReport(r.Context(), db, dr)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, pl)
	}
}

func ItemMovementQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dr, err := parseRange(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		m, err := ItemMovement(r.Context(), db, dr)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, m)
	}
}

func DashboardQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := Today(r.Context(), db, time.Now())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, d)
	}
}
