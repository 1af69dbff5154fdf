package products

import (
	"context"
	"net/http"

	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/cache"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

// ProductsQueryHandler lists products. Unfiltered reads are served from the
// catalog cache.
func ProductsQueryHandler(db *sqlite.DB, catalog *cache.CatalogCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := r.URL.Query().Get("q")
		var (
			list []models.Product
			err  error
		)
		if search == "" {
			list, err = catalog.Products(r.Context(), func(ctx context.Context) ([]models.Product, error) {
				return ListProducts(ctx, db, "")
			})
		} else {
			list, err = ListProducts(r.Context(), db, search)
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

func ProductQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		p, err := GetProduct(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, p)
	}
}

func CreateProductCommandHandler(db *sqlite.DB, catalog *cache.CatalogCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in ProductInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, r, err)
			return
		}
		p, err := CreateProduct(r.Context(), db, in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		catalog.Invalidate()
		respond.JSON(w, http.StatusCreated, p)
	}
}

func UpdateProductCommandHandler(db *sqlite.DB, catalog *cache.CatalogCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		var in ProductInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, r, err)
			return
		}
		p, err := UpdateProduct(r.Context(), db, id, in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		catalog.Invalidate()
		respond.JSON(w, http.StatusOK, p)
	}
}

func DeleteProductCommandHandler(db *sqlite.DB, catalog *cache.CatalogCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := DeleteProduct(r.Context(), db, id); err != nil {
			respond.Error(w, r, err)
			return
		}
		catalog.Invalidate()
		w.WriteHeader(http.StatusNoContent)
	}
}
