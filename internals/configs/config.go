package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var (
	JWTSecret string
	Finance   FinanceConfig
)

// FinanceConfig menampung semua kredensial gateway, tarif payroll, dan jadwal cron.
type FinanceConfig struct {
	MidtransServerKey     string
	MidtransUseProd       bool
	MidtransExpiryMinutes int64

	XenditSecretKey     string
	XenditCallbackToken string
	XenditBaseURL       string

	// Potongan per hari (rupiah)
	LeaveDeductionPerDay   decimal.Decimal
	SickDeductionPerDay    decimal.Decimal
	AbsenceDeductionPerDay decimal.Decimal

	CronExpirySweep    string
	CronReconcile      string
	CronMonthlyBilling string
	CronOutbox         string

	ReconcileLookback time.Duration
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	Finance = LoadFinanceConfig()

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	}
	if Finance.MidtransServerKey == "" {
		log.Println("❌ MIDTRANS_SERVER_KEY belum diset! webhook Midtrans akan selalu ditolak")
	}
	if Finance.XenditCallbackToken == "" {
		log.Println("❌ XENDIT_CALLBACK_TOKEN belum diset! webhook disbursement akan selalu ditolak")
	}
}

func LoadFinanceConfig() FinanceConfig {
	return FinanceConfig{
		MidtransServerKey:     GetEnv("MIDTRANS_SERVER_KEY"),
		MidtransUseProd:       GetEnvBool("MIDTRANS_USE_PROD", false),
		MidtransExpiryMinutes: int64(GetEnvInt("MIDTRANS_EXPIRY_MINUTES", 60*24)),

		XenditSecretKey:     GetEnv("XENDIT_SECRET_KEY"),
		XenditCallbackToken: GetEnv("XENDIT_CALLBACK_TOKEN"),
		XenditBaseURL:       GetEnv("XENDIT_BASE_URL", "https://api.xendit.co"),

		LeaveDeductionPerDay:   GetEnvDecimal("PAYROLL_LEAVE_DEDUCTION", decimal.Zero),
		SickDeductionPerDay:    GetEnvDecimal("PAYROLL_SICK_DEDUCTION", decimal.Zero),
		AbsenceDeductionPerDay: GetEnvDecimal("PAYROLL_ABSENCE_DEDUCTION", decimal.NewFromInt(50000)),

		CronExpirySweep:    GetEnv("CRON_EXPIRY_SWEEP", "*/5 * * * *"),
		CronReconcile:      GetEnv("CRON_RECONCILE", "*/15 * * * *"),
		CronMonthlyBilling: GetEnv("CRON_MONTHLY_BILLING", "0 1 1 * *"),
		CronOutbox:         GetEnv("CRON_OUTBOX", "* * * * *"),

		ReconcileLookback: time.Duration(GetEnvInt("RECONCILE_LOOKBACK_HOURS", 72)) * time.Hour,
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func GetEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func GetEnvDecimal(key string, def decimal.Decimal) decimal.Decimal {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Printf("⚠️ %s bukan angka valid (%q), pakai default %s", key, v, def)
		return def
	}
	return d
}
