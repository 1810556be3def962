package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	AGT     AGTConfig
	Redis   RedisConfig
	Storage StorageConfig
	SAFT    SAFTConfig
}

// AGTConfig certificado del emisor y datos del software certificado por la AGT (Angola).
type AGTConfig struct {
	CertPath                 string // Ruta al certificado .pem o .p12 (vacío = firma de desarrollo)
	CertKeyPath              string // Llave privada .pem si CertPath es sólo el certificado
	CertPassword             string // Contraseña del .p12
	CertificateNumber        string // Número de certificado del software (p. ej. "31.1/AGT20")
	SoftwareValidationNumber string
	ProductID                string
	ProductVersion           string
	ProductCompanyTaxID      string // NIF del productor del software
	SeriesValidationCode     string // prefijo del ATCUD
	DefaultSeries            string
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN connection string con URL encoding de la contraseña.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig Redis para idempotencia. Addr vacío = almacén en memoria (una sola instancia).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig bucket S3 (o compatible) donde se archivan los SAF-T exportados.
type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // MinIO u otro compatible; vacío = AWS
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// SAFTConfig límites de exportación.
type SAFTConfig struct {
	ExportRatePerMinute int
	ArchiveEnabled      bool
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde .env/config.env).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, AGT_CERT_PATH, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "billing-agt"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "billing"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "billing-agt"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		AGT: AGTConfig{
			CertPath:                 getString(v, "AGT_CERT_PATH", ""),
			CertKeyPath:              getString(v, "AGT_CERT_KEY_PATH", ""),
			CertPassword:             getString(v, "AGT_CERT_PASSWORD", ""),
			CertificateNumber:        getString(v, "AGT_CERTIFICATE_NUMBER", ""),
			SoftwareValidationNumber: getString(v, "AGT_SOFTWARE_VALIDATION_NUMBER", ""),
			ProductID:                getString(v, "AGT_PRODUCT_ID", "CRM Facturacao/AGT"),
			ProductVersion:           getString(v, "AGT_PRODUCT_VERSION", "1.0.0"),
			ProductCompanyTaxID:      getString(v, "AGT_PRODUCT_COMPANY_TAX_ID", ""),
			SeriesValidationCode:     getString(v, "AGT_SERIES_VALIDATION_CODE", ""),
			DefaultSeries:            getString(v, "AGT_DEFAULT_SERIES", ""),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Bucket:          getString(v, "STORAGE_BUCKET", ""),
			Region:          getString(v, "STORAGE_REGION", "us-east-1"),
			Endpoint:        getString(v, "STORAGE_ENDPOINT", ""),
			AccessKeyID:     getString(v, "STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getString(v, "STORAGE_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getBool(v, "STORAGE_USE_PATH_STYLE", false),
		},
		SAFT: SAFTConfig{
			ExportRatePerMinute: getInt(v, "SAFT_EXPORT_RATE_PER_MINUTE", 6),
			ArchiveEnabled:      getBool(v, "SAFT_ARCHIVE_ENABLED", false),
		},
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.App.Env == "production" && c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET es obligatorio en producción")
	}
	if c.App.Env == "production" && c.AGT.CertPath == "" {
		return fmt.Errorf("config: AGT_CERT_PATH es obligatorio en producción")
	}
	if c.SAFT.ArchiveEnabled && c.Storage.Bucket == "" {
		return fmt.Errorf("config: SAFT_ARCHIVE_ENABLED requiere STORAGE_BUCKET")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
