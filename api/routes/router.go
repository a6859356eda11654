package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helixmedical/devicecost-backend/api/controllers"
	"github.com/helixmedical/devicecost-backend/api/middleware"
	itemsvc "github.com/helixmedical/devicecost-backend/internal/items"
	pricesheetsvc "github.com/helixmedical/devicecost-backend/internal/pricesheets"
	rebatesvc "github.com/helixmedical/devicecost-backend/internal/rebates"
	"github.com/helixmedical/devicecost-backend/pkg/config"
	"github.com/helixmedical/devicecost-backend/pkg/db"
	"github.com/helixmedical/devicecost-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	metricsRegistry *prometheus.Registry,
	priceSheetService pricesheetsvc.Service,
	itemService itemsvc.Service,
	rebateService rebatesvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/price-sheets", func(r chi.Router) {
			r.Post("/", controllers.PriceSheetCreate(priceSheetService, logg))
			r.Get("/{priceSheetId}", controllers.PriceSheetDetail(priceSheetService, logg))
			r.Get("/{priceSheetId}/discounts", controllers.PriceSheetDiscounts(priceSheetService, logg))
			r.Post("/{priceSheetId}/discounts", controllers.DiscountCreate(priceSheetService, logg))
		})

		r.Route("/rebates", func(r chi.Router) {
			r.Get("/", controllers.RebateList(rebateService, logg))
			r.Post("/", controllers.RebateCreate(rebateService, logg))
			r.Get("/{rebateId}", controllers.RebateDetail(rebateService, logg))
			r.Post("/{rebateId}/apply", controllers.RebateApply(rebateService, logg))
			r.Post("/{rebateId}/unapply", controllers.RebateUnapply(rebateService, logg))
		})
	})

	r.Route("/api/v1/items", func(r chi.Router) {
		r.Get("/", controllers.ItemList(itemService, logg))
		r.Post("/", controllers.ItemCreate(itemService, logg))
		r.Get("/{itemId}", controllers.ItemDetail(itemService, logg))
		r.Patch("/{itemId}", controllers.ItemUpdate(itemService, logg))
		r.Post("/{itemId}/discounts", controllers.ItemAssignDiscounts(itemService, logg))
		r.Post("/{itemId}/used", controllers.ItemMarkUsed(itemService, logg))
		r.Get("/{itemId}/redemption", controllers.ItemRedemption(itemService, logg))
	})

	return r
}
