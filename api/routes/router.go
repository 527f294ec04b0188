package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adityarahmanda/trashpoint-backend/api/controllers"
	"github.com/adityarahmanda/trashpoint-backend/api/middleware"
	"github.com/adityarahmanda/trashpoint-backend/internal/deposits"
	"github.com/adityarahmanda/trashpoint-backend/internal/ledger"
	"github.com/adityarahmanda/trashpoint-backend/internal/machines"
	"github.com/adityarahmanda/trashpoint-backend/internal/sessions"
	"github.com/adityarahmanda/trashpoint-backend/internal/vouchers"
	"github.com/adityarahmanda/trashpoint-backend/pkg/config"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
	pkgredis "github.com/adityarahmanda/trashpoint-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs. Optional entries
// (Gatherer, IdempotencyStore) may be nil; the affected routes degrade.
type Dependencies struct {
	Config           *config.Config
	Logger           *logger.Logger
	DBPinger         db.Pinger
	RedisPinger      pkgredis.Pinger
	IdempotencyStore pkgredis.IdempotencyStore
	Gatherer         prometheus.Gatherer

	Machines machines.Service
	Sessions sessions.Service
	Deposits deposits.Service
	Ledger   ledger.Service
	Vouchers vouchers.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.IdempotencyStore != nil {
			r.Use(middleware.Idempotency(deps.IdempotencyStore, logg))
		}

		r.Route("/machines", func(r chi.Router) {
			r.Post("/", controllers.MachineRegister(deps.Machines, logg))
			r.Get("/", controllers.MachineList(deps.Machines, logg))
			r.Get("/{machineId}", controllers.MachineGet(deps.Machines, logg))
			r.Put("/{machineId}/status", controllers.MachineSetStatus(deps.Machines, logg))
			r.Post("/{machineId}/heartbeat", controllers.MachineHeartbeat(deps.Machines, logg))
			r.Post("/{machineId}/sessions", controllers.SessionCreate(deps.Sessions, logg))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/{token}/claim", controllers.SessionClaim(deps.Sessions, logg))
			r.Post("/{token}/guest", controllers.SessionActivateGuest(deps.Sessions, logg))
			r.Get("/{token}", controllers.SessionStatus(deps.Sessions, logg))
		})

		r.Route("/deposits", func(r chi.Router) {
			r.Post("/", controllers.DepositIntake(deps.Deposits, logg))
			r.Post("/{depositId}/finalize", controllers.DepositFinalize(deps.Deposits, logg))
			r.Get("/{depositId}", controllers.DepositGet(deps.Deposits, logg))
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/{accountId}/balance", controllers.AccountBalance(deps.Ledger, logg))
			r.Get("/{accountId}/ledger", controllers.AccountLedger(deps.Ledger, logg))
		})

		r.Route("/vouchers", func(r chi.Router) {
			r.Post("/", controllers.VoucherCreate(deps.Vouchers, logg))
			r.Get("/", controllers.VoucherList(deps.Vouchers, logg))
			r.Post("/redeem", controllers.VoucherRedeem(deps.Vouchers, logg))
		})
	})

	return r
}
