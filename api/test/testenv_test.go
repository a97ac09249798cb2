package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/avelkova/studiofit/api"
	"github.com/avelkova/studiofit/api/background"
	"github.com/avelkova/studiofit/cache"
	"github.com/avelkova/studiofit/config"
	"github.com/avelkova/studiofit/core/claims"
	"github.com/avelkova/studiofit/core/user"
	"github.com/avelkova/studiofit/database"
	"github.com/avelkova/studiofit/email"
	"github.com/avelkova/studiofit/validate"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"golang.org/x/crypto/bcrypt"
)

const (
	webhookSecret = "whsec_test_secret"

	adminEmail = "admin@test.com"
	adminPass  = "admin-password"
	userEmail  = "user@test.com"
	userPass   = "user-password"
)

type TestEnv struct {
	DB     *sqlx.DB
	Server *httptest.Server
	URL    string

	UserEmail string
	UserPass  string

	AdminEmail string
	AdminPass  string

	WebhookSecret string

	Paypal *mockPaypal
	Stripe *mockStripe

	client *http.Client
}

// NewTestEnv spins up a throwaway postgres container, migrates it and
// starts the API against mock payment backends. Everything is torn down
// with the test.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}

	res, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=" + name,
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	res.Expire(300)
	t.Cleanup(func() { pool.Purge(res) })

	dbCfg := config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       "localhost:" + res.GetPort("5432/tcp"),
		Name:       name,
		MaxIdle:    2,
		MaxOpen:    5,
		DisableTLS: true,
	}

	var db *sqlx.DB
	if err := pool.Retry(func() error {
		db, err = database.Open(dbCfg)
		return err
	}); err != nil {
		return nil, fmt.Errorf("waiting for postgres: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test database: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	mp := &mockPaypal{}
	paypalServer := httptest.NewServer(mp.handle())
	t.Cleanup(paypalServer.Close)

	pp, err := paypal.NewClient("test-client", "test-secret", paypalServer.URL)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}
	if _, err := pp.GetAccessToken(context.Background()); err != nil {
		return nil, fmt.Errorf("fetching mock paypal token: %w", err)
	}

	ms := &mockStripe{}
	stripeServer := httptest.NewServer(ms.handle())
	t.Cleanup(stripeServer.Close)

	sb := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL: stripe.String(stripeServer.URL),
	})
	strp := &stripecl.API{}
	strp.Init("sk_test_key", &stripe.Backends{API: sb, Uploads: sb, Connect: sb})

	session := scs.New()
	session.Lifetime = time.Hour

	stripeCfg := config.Stripe{
		APISecret:     "sk_test_key",
		WebhookSecret: webhookSecret,
		SuccessURL:    "http://localhost/success",
		CancelURL:     "http://localhost/cancelled",
	}

	mux := api.APIMux(api.APIConfig{
		Log:          logger,
		DB:           db,
		Session:      session,
		Mailer:       email.New("no-reply@test.com", "", "localhost", "1", email.Links{}),
		TokenTimeout: time.Minute,
		Background:   background.New(logger),
		Cache:        cache.NewMemory(),
		CacheTTL:     time.Minute,
		Paypal:       pp,
		Stripe:       strp,
		StripeCfg:    stripeCfg,
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}

	env := &TestEnv{
		DB:            db,
		Server:        server,
		URL:           server.URL,
		UserEmail:     userEmail,
		UserPass:      userPass,
		AdminEmail:    adminEmail,
		AdminPass:     adminPass,
		WebhookSecret: webhookSecret,
		Paypal:        mp,
		Stripe:        ms,
		client:        &http.Client{Jar: jar},
	}

	if err := env.bootstrap(t); err != nil {
		return nil, err
	}
	return env, nil
}

// bootstrap creates the admin account directly (there is no admin to
// provision it through the API) and a regular user through signup.
func (te *TestEnv) bootstrap(t *testing.T) error {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := user.User{
		ID:        validate.GenerateID(),
		Name:      "Admin",
		Email:     adminEmail,
		Role:      claims.RoleAdmin,
		PassHash:  hash,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Create(context.Background(), te.DB, admin); err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}

	signup := map[string]string{
		"name":            "Test User",
		"email":           userEmail,
		"password":        userPass,
		"passwordConfirm": userPass,
	}
	w, err := te.Do(http.MethodPost, "/auth/signup", signup, nil)
	if err != nil {
		return fmt.Errorf("signing up test user: %w", err)
	}
	if w.StatusCode != http.StatusCreated {
		return fmt.Errorf("signing up test user: status code %s", w.Status)
	}

	return te.Logout()
}

func (te *TestEnv) Client() *http.Client { return te.client }

// Do sends a JSON request through the session-aware client, decoding the
// body into out when it is non-nil.
func (te *TestEnv) Do(method, path string, body any, out any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	r, err := http.NewRequest(method, te.URL+path, &buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := te.client.Do(r)
	if err != nil {
		return nil, err
	}
	defer w.Body.Close()

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decoding response body: %w", err)
		}
	}
	return w, nil
}

func (te *TestEnv) Login(email, pass string) error {
	creds := map[string]string{"email": email, "password": pass}
	w, err := te.Do(http.MethodPost, "/auth/login", creds, nil)
	if err != nil {
		return err
	}
	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: status code %s", w.Status)
	}
	return nil
}

func (te *TestEnv) Logout() error {
	w, err := te.Do(http.MethodPost, "/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout failed: status code %s", w.Status)
	}
	return nil
}
