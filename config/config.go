package config

import "time"

type Config struct {
	Web    Web
	Cors   Cors
	DB     DB
	Cache  Cache
	Auth   Auth
	Oauth  Oauth
	Email  Email
	Stripe Stripe
	Paypal Paypal
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost:5432"`
	Name       string `conf:"default:studiofit"`
	MaxIdle    int    `conf:"default:2"`
	MaxOpen    int    `conf:"default:10"`
	DisableTLS bool   `conf:"default:true"`
}

type Cache struct {
	RedisURL string
	TTL      time.Duration `conf:"default:5m"`
}

type Auth struct {
	ActivationRequired bool `conf:"default:false"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:http://localhost:3000"`
	Google           OauthProvider
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string `conf:"default:http://localhost:8000/auth/oauth-callback/google"`
}

type Email struct {
	Host          string        `conf:"default:localhost"`
	Port          string        `conf:"default:1025"`
	Address       string        `conf:"default:no-reply@studiofit.local"`
	Password      string        `conf:"mask"`
	TokenTimeout  time.Duration `conf:"default:15m"`
	ActivationURL string        `conf:"default:http://localhost:3000/activate"`
	RecoveryURL   string        `conf:"default:http://localhost:3000/recover"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL     string `conf:"default:http://localhost:3000/checkout/cancelled"`
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api.sandbox.paypal.com"`
}
