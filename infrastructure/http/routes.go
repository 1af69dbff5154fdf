package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	adminusers "miragepos/frontend/adminUsers"
	"miragepos/frontend/backup"
	"miragepos/frontend/documents"
	"miragepos/frontend/login"
	"miragepos/frontend/products"
	"miragepos/frontend/quotations"
	"miragepos/frontend/reports"
	"miragepos/frontend/sales"
	"miragepos/frontend/shipments"
	"miragepos/frontend/vendors"
	"miragepos/infrastructure/rbac"
)

// RegisterLoginRoutes registers login/logout routes.
func (s *Server) RegisterLoginRoutes() {
	s.router.Get("/login", login.GetLoginScreenHandler)
	loginHandler := login.CreateLoginHandler(s.DB, s.SessionCache, s.Options.SessionTTL, s.Options.SecureCookies)
	if s.Options.LoginRateLimit > 0 {
		s.router.With(httprate.LimitByIP(s.Options.LoginRateLimit, time.Minute)).Post("/login", loginHandler)
	} else {
		s.router.Post("/login", loginHandler)
	}
	s.router.Post("/logout", login.LogoutHandler(s.SessionCache, s.Options.SecureCookies))
}

// RegisterAdminRoutes registers admin-only routes.
func (s *Server) RegisterAdminRoutes(r chi.Router) chi.Router {
	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_LIST", http.MethodGet, "/tasker/api/users")
	r.Get("/users", adminusers.UsersQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_CREATE", http.MethodPost, "/tasker/api/users")
	r.Post("/users", adminusers.CreateUserCommandHandler(s.DB))
	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_DELETE", http.MethodDelete, "/tasker/api/users/{id}")
	r.Delete("/users/{id}", adminusers.DeleteUserCommandHandler(s.DB, s.SessionCache))

	// The snapshot carries every user's password hash.
	s.Rbac.Add(rbac.RoleAdmin, "BACKUP_EXPORT", http.MethodGet, "/tasker/api/backup/export")
	r.Get("/backup/export", backup.ExportJSONHandler(s.DB))
	s.Rbac.Add(rbac.RoleAdmin, "BACKUP_IMPORT", http.MethodPost, "/tasker/api/backup/import")
	r.Post("/backup/import", backup.ImportCommandHandler(s.DB, s.SessionCache, s.Catalog, backup.AdminAccount{
		Username: s.Options.AdminUsername,
		Password: s.Options.AdminPassword,
	}))

	s.Rbac.Add(rbac.RoleAdmin, "SALES_EDITS_RECOVER", http.MethodPost, "/tasker/api/sales/pending-edits/recover")
	r.Post("/sales/pending-edits/recover", sales.RecoverEditsCommandHandler(s.DB))
	s.Rbac.Add(rbac.RoleAdmin, "SALES_EDITS_ABANDON", http.MethodPost, "/tasker/api/sales/pending-edits/{id}/abandon")
	r.Post("/sales/pending-edits/{id}/abandon", sales.AbandonEditCommandHandler(s.DB))
	return r
}

// RegisterFrontendRoutes registers routes open to every signed-in role.
func (s *Server) RegisterFrontendRoutes(r chi.Router) chi.Router {
	s.Rbac.Add(rbac.RoleStaff, "ME_VIEW", http.MethodGet, "/tasker/api/me")
	r.Get("/me", login.MeQueryHandler(s.permissions))
	s.Rbac.Add(rbac.RoleStaff, "EVENTS_STREAM", http.MethodGet, "/tasker/api/events")
	r.Get("/events", EventsHandler(s.Notifier))

	s.RegisterCatalogRoutes(r)
	s.RegisterSalesRoutes(r)
	s.RegisterQuotationRoutes(r)
	s.RegisterShipmentRoutes(r)
	s.RegisterReportRoutes(r)
	return r
}

func (s *Server) RegisterCatalogRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleStaff, "PRODUCTS_LIST", http.MethodGet, "/tasker/api/products")
	r.Get("/products", products.ProductsQueryHandler(s.DB, s.Catalog))
	s.Rbac.Add(rbac.RoleStaff, "PRODUCTS_CREATE", http.MethodPost, "/tasker/api/products")
	r.Post("/products", products.CreateProductCommandHandler(s.DB, s.Catalog))
	s.Rbac.Add(rbac.RoleStaff, "PRODUCTS_VIEW", http.MethodGet, "/tasker/api/products/{id}")
	r.Get("/products/{id}", products.ProductQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "PRODUCTS_EDIT", http.MethodPut, "/tasker/api/products/{id}")
	r.Put("/products/{id}", products.UpdateProductCommandHandler(s.DB, s.Catalog))
	s.Rbac.Add(rbac.RoleStaff, "PRODUCTS_DELETE", http.MethodDelete, "/tasker/api/products/{id}")
	r.Delete("/products/{id}", products.DeleteProductCommandHandler(s.DB, s.Catalog))

	s.Rbac.Add(rbac.RoleStaff, "VENDORS_LIST", http.MethodGet, "/tasker/api/vendors")
	r.Get("/vendors", vendors.VendorsQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "VENDORS_CREATE", http.MethodPost, "/tasker/api/vendors")
	r.Post("/vendors", vendors.CreateVendorCommandHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "VENDORS_DELETE", http.MethodDelete, "/tasker/api/vendors/{id}")
	r.Delete("/vendors/{id}", vendors.DeleteVendorCommandHandler(s.DB))
}

func (s *Server) RegisterSalesRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleStaff, "SALES_LIST", http.MethodGet, "/tasker/api/sales")
	r.Get("/sales", sales.SalesQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "SALES_CHECKOUT", http.MethodPost, "/tasker/api/sales")
	r.Post("/sales", sales.CheckoutCommandHandler(s.DB, s.Alloc))
	s.Rbac.Add(rbac.RoleStaff, "SALES_TOTALS", http.MethodPost, "/tasker/api/sales/totals")
	r.Post("/sales/totals", sales.TotalsQueryHandler)
	s.Rbac.Add(rbac.RoleStaff, "SALES_NEXT_INVOICE", http.MethodGet, "/tasker/api/sales/next-invoice")
	r.Get("/sales/next-invoice", sales.NextInvoiceQueryHandler(s.Alloc))
	s.Rbac.Add(rbac.RoleStaff, "SALES_EDITS_PENDING", http.MethodGet, "/tasker/api/sales/pending-edits")
	r.Get("/sales/pending-edits", sales.PendingEditsQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "SALES_VIEW", http.MethodGet, "/tasker/api/sales/{id}")
	r.Get("/sales/{id}", sales.SaleQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "SALES_EDIT", http.MethodPut, "/tasker/api/sales/{id}")
	r.Put("/sales/{id}", sales.EditSaleCommandHandler(s.DB, s.Alloc))
	s.Rbac.Add(rbac.RoleStaff, "SALES_DELETE", http.MethodDelete, "/tasker/api/sales/{id}")
	r.Delete("/sales/{id}", sales.DeleteSaleCommandHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "SALES_INVOICE_PDF", http.MethodGet, "/tasker/api/sales/{id}/invoice.pdf")
	r.Get("/sales/{id}/invoice.pdf", documents.InvoicePDFQueryHandler(s.DB))
}

func (s *Server) RegisterQuotationRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleStaff, "QUOTATIONS_LIST", http.MethodGet, "/tasker/api/quotations")
	r.Get("/quotations", quotations.QuotationsQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "QUOTATIONS_CREATE", http.MethodPost, "/tasker/api/quotations")
	r.Post("/quotations", quotations.CreateQuotationCommandHandler(s.DB, s.Alloc))
	s.Rbac.Add(rbac.RoleStaff, "QUOTATIONS_NEXT", http.MethodGet, "/tasker/api/quotations/next-number")
	r.Get("/quotations/next-number", quotations.NextQuotationQueryHandler(s.Alloc))
	s.Rbac.Add(rbac.RoleStaff, "QUOTATIONS_VIEW", http.MethodGet, "/tasker/api/quotations/{id}")
	r.Get("/quotations/{id}", quotations.QuotationQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "QUOTATIONS_EDIT", http.MethodPut, "/tasker/api/quotations/{id}")
	r.Put("/quotations/{id}", quotations.UpdateQuotationCommandHandler(s.DB, s.Alloc))
	s.Rbac.Add(rbac.RoleStaff, "QUOTATIONS_DELETE", http.MethodDelete, "/tasker/api/quotations/{id}")
	r.Delete("/quotations/{id}", quotations.DeleteQuotationCommandHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "QUOTATIONS_CART", http.MethodGet, "/tasker/api/quotations/{id}/cart")
	r.Get("/quotations/{id}/cart", quotations.QuotationCartQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "QUOTATIONS_CONVERT", http.MethodPost, "/tasker/api/quotations/{id}/convert")
	r.Post("/quotations/{id}/convert", quotations.ConvertQuotationCommandHandler(s.DB, s.Alloc))
	s.Rbac.Add(rbac.RoleStaff, "QUOTATIONS_PDF", http.MethodGet, "/tasker/api/quotations/{id}/quotation.pdf")
	r.Get("/quotations/{id}/quotation.pdf", documents.QuotationPDFQueryHandler(s.DB))
}

func (s *Server) RegisterShipmentRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleStaff, "SHIPMENTS_LIST", http.MethodGet, "/tasker/api/shipments")
	r.Get("/shipments", shipments.ShipmentsQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "SHIPMENTS_COMMIT", http.MethodPost, "/tasker/api/shipments")
	r.Post("/shipments", shipments.CommitShipmentCommandHandler(s.DB, s.Alloc, s.Catalog))
	s.Rbac.Add(rbac.RoleStaff, "SHIPMENTS_PLAN", http.MethodPost, "/tasker/api/shipments/plan")
	r.Post("/shipments/plan", shipments.PlanShipmentQueryHandler)
	s.Rbac.Add(rbac.RoleStaff, "SHIPMENTS_IMPORT_LINES", http.MethodPost, "/tasker/api/shipments/import-lines")
	r.Post("/shipments/import-lines", shipments.ImportLinesCommandHandler)
	s.Rbac.Add(rbac.RoleStaff, "SHIPMENTS_VIEW", http.MethodGet, "/tasker/api/shipments/{id}")
	r.Get("/shipments/{id}", shipments.ShipmentQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "SHIPMENTS_DELETE", http.MethodDelete, "/tasker/api/shipments/{id}")
	r.Delete("/shipments/{id}", shipments.DeleteShipmentCommandHandler(s.DB))
}

func (s *Server) RegisterReportRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleStaff, "REPORTS_DASHBOARD", http.MethodGet, "/tasker/api/reports/dashboard")
	r.Get("/reports/dashboard", reports.DashboardQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "REPORTS_PROFIT_LOSS", http.MethodGet, "/tasker/api/reports/profit-loss")
	r.Get("/reports/profit-loss", reports.ProfitAndLossQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "REPORTS_MOVEMENT", http.MethodGet, "/tasker/api/reports/movement")
	r.Get("/reports/movement", reports.ItemMovementQueryHandler(s.DB))

	s.Rbac.Add(rbac.RoleStaff, "EXPORT_PRODUCTS_CSV", http.MethodGet, "/tasker/api/exports/products.csv")
	r.Get("/exports/products.csv", backup.ProductsCSVHandler(s.DB))
	s.Rbac.Add(rbac.RoleStaff, "EXPORT_SALES_CSV", http.MethodGet, "/tasker/api/exports/sales.csv")
	r.Get("/exports/sales.csv", backup.SalesCSVHandler(s.DB))
}

// Admin passes every check, so it is shown the staff codes as well as its own.
func (s *Server) permissions(roles []string) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(role string) {
		for _, code := range s.RbacCache.Codes(role) {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	for _, role := range roles {
		if role == rbac.RoleAdmin {
			add(rbac.RoleStaff)
		}
		add(role)
	}
	return out
}
