package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Amm-ar/delivero-backend/pricing"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env       string
	DBSource  string
	Port      string
	JWTSecret string
	JWTTTL    time.Duration

	Pricing          pricing.Params
	SurgeHours       []HourRange
	DispatchRadiusKm float64
}

// HourRange is an inclusive-start, exclusive-end window of local hours
// during which surge pricing applies, e.g. 18-21.
type HourRange struct {
	Start int
	End   int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:       getEnv("APP_ENV", "development"),
		DBSource:  getEnv("DB_SOURCE", "delivero.db"),
		Port:      getEnv("PORT", "8000"),
		JWTSecret: getEnv("JWT_SECRET", "changeme"),
		JWTTTL:    24 * time.Hour,
		Pricing: pricing.Params{
			ServiceFeeRate:  getDecimal("SERVICE_FEE_RATE", "0.08"),
			SurgeMultiplier: getDecimal("SURGE_MULTIPLIER", "1.5"),
			CommissionRate:  getDecimal("COMMISSION_RATE", "0.20"),
		},
		SurgeHours:       parseSurgeHours(getEnv("SURGE_HOURS", "11-14,18-21")),
		DispatchRadiusKm: getFloat("DISPATCH_RADIUS_KM", 10),
	}
}

// IsSurgeTime reports whether t falls inside a configured surge window.
func (c *Config) IsSurgeTime(t time.Time) bool {
	h := t.Hour()
	for _, r := range c.SurgeHours {
		if h >= r.Start && h < r.End {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getDecimal(key, fallback string) decimal.Decimal {
	raw := getEnv(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Fatalf("invalid decimal for %s: %q", key, raw)
	}
	return d
}

func getFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Fatalf("invalid number for %s: %q", key, raw)
	}
	return f
}

func parseSurgeHours(raw string) []HourRange {
	var out []HourRange
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			log.Fatalf("invalid SURGE_HOURS range: %q", part)
		}
		start, err1 := strconv.Atoi(bounds[0])
		end, err2 := strconv.Atoi(bounds[1])
		if err1 != nil || err2 != nil || start < 0 || end > 24 || start >= end {
			log.Fatalf("invalid SURGE_HOURS range: %q", part)
		}
		out = append(out, HourRange{Start: start, End: end})
	}
	return out
}
