package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Default rate limiting
const DefaultRateLimitPerMin = 60

// Out-of-hours reply used when a merchant enables schedule enforcement but
// sets no custom message.
const DefaultScheduleMessage = "Gracias por tu mensaje. Nuestro horario de atención ha terminado por hoy; te responderemos en cuanto abramos de nuevo."

// Apology sent when the model provider fails after the fallback attempt.
const ProviderFailureMessage = "Lo siento, estoy teniendo problemas técnicos en este momento. Por favor intenta de nuevo en unos minutos."
