package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr          string
	DBDSN             string
	JWTIssuer         string
	JWTSecret         string
	JWTTTL            time.Duration
	PriceTickInterval time.Duration
	WSOrigin          string
	InternalToken     string
	LogLevel          string
}

func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":5000"
	}
	c.DBDSN = os.Getenv("DB_DSN")
	if c.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		c.JWTIssuer = "stock-sim"
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		jwtTTL = "24h"
	}
	d, err := time.ParseDuration(jwtTTL)
	if err != nil {
		return c, errors.New("invalid JWT_TTL: " + err.Error())
	}
	c.JWTTTL = d
	tick := os.Getenv("PRICE_TICK_INTERVAL")
	if tick == "" {
		tick = "5m"
	}
	d, err = time.ParseDuration(tick)
	if err != nil {
		return c, errors.New("invalid PRICE_TICK_INTERVAL: " + err.Error())
	}
	if d <= 0 {
		return c, errors.New("PRICE_TICK_INTERVAL must be positive")
	}
	c.PriceTickInterval = d
	c.WSOrigin = os.Getenv("WS_ORIGIN")
	if c.WSOrigin == "" {
		c.WSOrigin = "*"
	}
	c.InternalToken = os.Getenv("INTERNAL_API_TOKEN")
	c.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}
