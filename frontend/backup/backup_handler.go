package backup

import (
	"log/slog"
	"net/http"
	"time"

	sessioncontext "miragepos/frontend/shared/context"
	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/cache"
	"miragepos/infrastructure/sqlite"
)

// ExportJSONHandler downloads the full backup document.
func ExportJSONHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := ExportSnapshot(r.Context(), db)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+FileName(time.Now())+`"`)
		if err := WriteJSON(w, snap); err != nil {
			slog.Error("backup: failed to write export", slog.Any("err", err))
		}
	}
}

// AdminAccount is the bootstrap admin recreated after a restore without users.
type AdminAccount struct {
	Username string
	Password string
}

// ImportCommandHandler replaces the store with the uploaded backup. Every
// session ends because the user table was replaced.
func ImportCommandHandler(db *sqlite.DB, sessions *cache.UserSessionCache, catalog *cache.CatalogCache, admin AdminAccount) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := ReadJSON(http.MaxBytesReader(w, r.Body, 64<<20))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		res, err := Restore(r.Context(), db, snap, admin.Username, admin.Password)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		catalog.Invalidate()
		sessions.Clear()
		slog.Info("backup: restored", slog.String("by", sessioncontext.Username(r.Context())),
			slog.Int("products", res.Products), slog.Int("sales", res.Sales), slog.Int("users", res.Users))
		respond.JSON(w, http.StatusOK, res)
	}
}

func ProductsCSVHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="products.csv"`)
		if err := WriteProductsCSV(r.Context(), db, w); err != nil {
			slog.Error("backup: products csv failed", slog.Any("err", err))
		}
	}
}

func SalesCSVHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="sales.csv"`)
		if err := WriteSalesCSV(r.Context(), db, w); err != nil {
			slog.Error("backup: sales csv failed", slog.Any("err", err))
		}
	}
}
