package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/avelkova/studiofit/api/background"
	"github.com/avelkova/studiofit/api/middleware"
	"github.com/avelkova/studiofit/api/web"
	"github.com/avelkova/studiofit/cache"
	"github.com/avelkova/studiofit/config"
	"github.com/avelkova/studiofit/core/assignment"
	"github.com/avelkova/studiofit/core/auth"
	"github.com/avelkova/studiofit/core/cart"
	"github.com/avelkova/studiofit/core/checkout"
	"github.com/avelkova/studiofit/core/credit"
	"github.com/avelkova/studiofit/core/storefront"
	"github.com/avelkova/studiofit/core/token"
	"github.com/avelkova/studiofit/core/user"
	"github.com/avelkova/studiofit/email"
	"github.com/avelkova/studiofit/rate"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin         string
	Log                logrus.FieldLogger
	DB                 *sqlx.DB
	Session            *scs.SessionManager
	Mailer             *email.Email
	TokenTimeout       time.Duration
	Background         *background.Background
	Cache              cache.Cache
	CacheTTL           time.Duration
	Paypal             *paypal.Client
	Stripe             *stripecl.API
	StripeCfg          config.Stripe
	Providers          map[string]auth.Provider
	LoginRedirectURL   string
	ActivationRequired bool
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Metrics())
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)
	limited := middleware.RateLimit(rate.NewLimiter(10, 15, rate.Every(time.Second)))

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session, cfg.ActivationRequired), limited)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session), limited)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodPost, "/tokens", token.HandleToken(cfg.DB, cfg.Mailer, cfg.TokenTimeout, cfg.Background), limited)
	a.Handle(http.MethodPost, "/tokens/activate", token.HandleActivation(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/tokens/recover", token.HandleRecovery(cfg.DB))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodGet, "/users/{id}", user.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPost, "/users", user.HandleCreate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/storefront/items/{id}", storefront.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/storefront/items", storefront.HandleList(cfg.DB, cfg.Cache, cfg.CacheTTL))
	a.Handle(http.MethodPost, "/storefront/items", storefront.HandleCreate(cfg.DB, cfg.Cache), admin)
	a.Handle(http.MethodPut, "/storefront/items/{id}", storefront.HandleUpdate(cfg.DB, cfg.Cache), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.DB), authen)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.DB), authen)
	a.Handle(http.MethodPut, "/cart/items/{item_id}", cart.HandleUpdateItem(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart/items/{item_id}", cart.HandleDeleteItem(cfg.DB), authen)

	a.Handle(http.MethodPost, "/checkout/stripe", checkout.HandleStripeCheckout(cfg.DB, cfg.Stripe, cfg.StripeCfg), authen)
	a.Handle(http.MethodPost, "/checkout/stripe/capture", checkout.HandleStripeCapture(cfg.DB, cfg.StripeCfg, cfg.Background, cfg.Mailer))
	a.Handle(http.MethodPost, "/checkout/paypal", checkout.HandlePaypalCheckout(cfg.DB, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/checkout/paypal/{id}/capture", checkout.HandlePaypalCapture(cfg.DB, cfg.Paypal, cfg.Background, cfg.Mailer), authen)
	a.Handle(http.MethodPost, "/checkout/cancel", checkout.HandleCancel(cfg.DB), authen)

	a.Handle(http.MethodGet, "/credits/balance", credit.HandleBalance(cfg.DB), authen)
	a.Handle(http.MethodGet, "/credits", credit.HandleList(cfg.DB), authen)
	a.Handle(http.MethodGet, "/users/{id}/credits", credit.HandleListByUser(cfg.DB), admin)

	a.Handle(http.MethodPost, "/assignments", assignment.HandleAssign(cfg.DB, cfg.Background, cfg.Mailer), admin)
	a.Handle(http.MethodPost, "/assignments/{id}/end", assignment.HandleEnd(cfg.DB, cfg.Background, cfg.Mailer), admin)
	a.Handle(http.MethodGet, "/clients/{id}/assignments", assignment.HandleListByClient(cfg.DB), authen)
	a.Handle(http.MethodGet, "/trainers/{id}/assignments", assignment.HandleListByTrainer(cfg.DB), authen)

	a.Router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
