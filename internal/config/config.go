package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:siplocal.db?cache=shared"`

	Square    Square    `envPrefix:"SQUARE_"`
	Clover    Clover    `envPrefix:"CLOVER_"`
	Braintree Braintree `envPrefix:"BRAINTREE_"`
	Push      Push      `envPrefix:"PUSH_"`
	Capture   Capture   `envPrefix:"CAPTURE_"`
	Admin     Admin     `envPrefix:"ADMIN_"`
}

type Square struct {
	BaseApiURL          string `env:"BASE_API_URL" envDefault:"https://connect.squareup.com"`
	ApplicationID       string `env:"APPLICATION_ID"`
	WebhookSignatureKey string `env:"WEBHOOK_SIGNATURE_KEY"`
	// Public URL the provider signs webhook deliveries against.
	WebhookURL string `env:"WEBHOOK_URL"`
}

type Clover struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.clover.com"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type Push struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://fcm.googleapis.com"`
	ServerKey  string `env:"SERVER_KEY"`
}

type Capture struct {
	// Cancellation window: time between authorization and capture.
	Delay time.Duration `env:"DELAY" envDefault:"30s"`
	// Back-off before a due task whose capture attempt errored is retried.
	FallbackDelay time.Duration `env:"FALLBACK_DELAY" envDefault:"45s"`
	PollInterval  time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
}

type Admin struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
