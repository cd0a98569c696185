package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/nkapoor/esshub/internal/auth"
	"github.com/nkapoor/esshub/internal/httpmw"
	"github.com/nkapoor/esshub/internal/logger"
	"github.com/nkapoor/esshub/internal/seed"
	"github.com/nkapoor/esshub/internal/server"
	"github.com/nkapoor/esshub/internal/store"
	memorystore "github.com/nkapoor/esshub/internal/store/memory"
	postgresstore "github.com/nkapoor/esshub/internal/store/postgres"
	redisstore "github.com/nkapoor/esshub/internal/store/redis"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8000" env:"ESSHUB_LISTEN"`
	Cert   string `help:"path to TLS cert file" default:"" env:"ESSHUB_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"ESSHUB_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:4200" env:"ESSHUB_CORS_ORIGINS"`

	// Token configuration
	TokenSecret string `help:"secret key for HMAC signing of tokens" env:"ESSHUB_TOKEN_SECRET"`
	TokenIssuer string `help:"issuer claim for signed tokens" default:"esshub" env:"ESSHUB_TOKEN_ISSUER"`

	// Store configuration
	StoreType     string             `help:"employee/payslip store type (memory or postgres)" default:"memory" env:"ESSHUB_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`

	// Challenge store configuration
	ChallengeStoreType string `help:"captcha/OTP store type (memory or redis)" default:"memory" env:"ESSHUB_CHALLENGE_STORE_TYPE" enum:"memory,redis"`
	RedisAddr          string `help:"redis address for the challenge store" default:"localhost:6379" env:"ESSHUB_REDIS_ADDR"`
	RedisPassword      string `help:"redis password" default:"" env:"ESSHUB_REDIS_PASSWORD"`

	// Seed data
	Seed     string `help:"YAML seed file loaded into the stores on startup" default:"" env:"ESSHUB_SEED"`
	SeedDemo bool   `help:"load the built-in demo employee and payslips" default:"false" env:"ESSHUB_SEED_DEMO"`

	// Development and operational modes
	LogOTP bool `help:"log issued OTPs instead of sending them (development only)" default:"false" env:"ESSHUB_LOG_OTP"`
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`
}

func (s *PostgresStoreFlags) validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if len(c.TokenSecret) < 32 {
		return errors.New("token secret must be at least 32 bytes (--token-secret or ESSHUB_TOKEN_SECRET)")
	}
	tokens, err := auth.NewTokens([]byte(c.TokenSecret), c.TokenIssuer)
	if err != nil {
		return err
	}

	var (
		employees store.EmployeeStore
		payslips  store.PayslipStore
	)

	switch c.StoreType {
	case "postgres":
		if err := c.PostgresStore.validate(); err != nil {
			return err
		}
		pool, err := postgresstore.NewPool(ctx, postgresstore.PoolConfig{
			ConnString:      c.PostgresStore.ConnString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
		})
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		employees = postgresstore.NewEmployeeStore(pool)
		payslips = postgresstore.NewPayslipStore(pool)
		log.Info().Msg("Using PostgreSQL stores with shared connection pool")

	default:
		employees = memorystore.NewEmployeeStore()
		payslips = memorystore.NewPayslipStore()
		log.Info().Msg("Using in-memory employee and payslip stores")
	}

	var challenges store.ChallengeStore
	switch c.ChallengeStoreType {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()

		challenges = redisstore.NewChallengeStore(client)
		log.Info().Str("addr", c.RedisAddr).Msg("Using redis challenge store")

	default:
		challenges = memorystore.NewChallengeStore()
		log.Info().Msg("Using in-memory challenge store")
	}

	if c.Seed != "" {
		f, err := seed.LoadFile(c.Seed)
		if err != nil {
			return err
		}
		if err := seed.Apply(ctx, f, employees, payslips); err != nil {
			return err
		}
		log.Info().Str("file", c.Seed).Int("employees", len(f.Employees)).Int("payslips", len(f.Payslips)).Msg("Seed data loaded")
	}
	if c.SeedDemo {
		if err := seed.ApplyDemo(ctx, employees, payslips); err != nil {
			return err
		}
		log.Info().Msg("Demo seed data loaded")
	}

	if c.LogOTP {
		log.Warn().Msg("OTP logging is enabled (--log-otp). This should only be used in development!")
	}

	srv := server.New(server.Config{
		Tokens:     tokens,
		Employees:  employees,
		Payslips:   payslips,
		Challenges: challenges,
		LogOTP:     c.LogOTP,
	})

	handler := httpmw.ClientIP()(httpmw.RequestLogger(log)(srv.Routes()))
	handler = withCORS(c.CORSOrigins, handler)

	if c.Cert != "" || c.Key != "" {
		if _, err := os.Stat(c.Cert); err != nil {
			return fmt.Errorf("TLS certificate not found at %s: %w", c.Cert, err)
		}
		if _, err := os.Stat(c.Key); err != nil {
			return fmt.Errorf("TLS key not found at %s: %w", c.Key, err)
		}
		log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
		return configureHTTPServer(c.Listen, handler).ListenAndServeTLS(c.Cert, c.Key)
	}

	log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
	return configureHTTPServer(c.Listen, handler).ListenAndServe()
}

// withCORS adds CORS support for browser clients.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return middleware.Handler(h)
}
