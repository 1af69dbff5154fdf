package shipments

import (
	"log/slog"
	"net/http"

	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/cache"
	"miragepos/infrastructure/sequence"
	"miragepos/infrastructure/sqlite"
)

// PlanShipmentQueryHandler previews landed costs without saving.
func PlanShipmentQueryHandler(w http.ResponseWriter, r *http.Request) {
	var in Intake
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	plan, err := PlanShipment(in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, plan)
}

func CommitShipmentCommandHandler(db *sqlite.DB, alloc *sequence.Allocator, catalog *cache.CatalogCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in Intake
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, r, err)
			return
		}
		shipment, products, err := CommitShipment(r.Context(), db, alloc, in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		catalog.Invalidate()
		slog.Info("shipments: committed", slog.String("shipment_id", shipment.ShipmentID), slog.Int("products", len(products)))
		respond.JSON(w, http.StatusCreated, map[string]any{"shipment": shipment, "products": products})
	}
}

// ImportLinesCommandHandler parses an uploaded CSV into intake lines. The
// lines are returned for review, not saved.
func ImportLinesCommandHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respond.Error(w, r, apperr.Validation("invalid upload form"))
		return
	}
	file, _, err := r.FormFile("csv_file")
	if err != nil {
		respond.Error(w, r, apperr.Validation("csv_file is required"))
		return
	}
	defer file.Close()

	lines, summary, err := ParseLinesCSV(file)
	if err != nil {
		respond.Error(w, r, apperr.Validation("%v", err))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"lines": lines, "summary": summary})
}

func ShipmentsQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := ListShipments(r.Context(), db, r.URL.Query().Get("q"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

func ShipmentQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		s, err := GetShipment(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, s)
	}
}

// DeleteShipmentCommandHandler removes the record only; products stay.
func DeleteShipmentCommandHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := DeleteShipment(r.Context(), db, id); err != nil {
			respond.Error(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
