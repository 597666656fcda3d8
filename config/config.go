package config

import (
	"time"

	"github.com/ardanlabs/conf/v3"
)

type Config struct {
	conf.Version
	Web     Web
	DB      DB
	Redis   Redis
	Cart    Cart
	Session Session
	Auth    Auth
	Cors    Cors
	Stripe  Stripe
	Paypal  Paypal
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:storefront"`
	MaxIdleConns int    `conf:"default:0"`
	MaxOpenConns int    `conf:"default:0"`
	DisableTLS   bool   `conf:"default:true"`
	Migrate      bool   `conf:"default:true"`
}

type Redis struct {
	Address  string `conf:"default:localhost:6379"`
	Password string `conf:"mask"`
	DB       int    `conf:"default:0"`
}

type Cart struct {
	SnapshotTTL time.Duration `conf:"default:720h"`
	IdleExpiry  time.Duration `conf:"default:30m"`
	RateBurst   int           `conf:"default:20"`
	RateEvery   time.Duration `conf:"default:100ms"`
	RateExpiry  time.Duration `conf:"default:10m"`
}

type Session struct {
	Lifetime   time.Duration `conf:"default:720h"`
	CookieName string        `conf:"default:storefront_session"`
}

type Auth struct {
	// bcrypt hash of the bearer token accepted on admin routes.
	AdminTokenHash string `conf:"mask"`
}

type Cors struct {
	Origin string
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string
	CancelURL     string
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api-m.sandbox.paypal.com"`
}
