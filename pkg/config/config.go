package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Store     StoreConfig
	DB        DBConfig
	Firebase  FirebaseConfig
	Alerts    AlertsConfig
	Reminders ReminderConfig
	Session   SessionConfig
	Storage   StorageConfig
	Metrics   MetricsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
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

// JWTConfig configuración de JWT (proveedor de identidad local).
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// Proveedores de identidad soportados.
const (
	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"
)

// AuthConfig selecciona el proveedor que valida los Bearer tokens.
type AuthConfig struct {
	Provider string // jwt | firebase
}

// Drivers del almacén de documentos.
const (
	StoreDriverMemory    = "memory"
	StoreDriverPostgres  = "postgres"
	StoreDriverFirestore = "firestore"
)

// StoreConfig selecciona el adaptador del almacén de documentos.
type StoreConfig struct {
	Driver string // memory | postgres | firestore
}

// DBConfig configuración de PostgreSQL (driver postgres).
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int32
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
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

// FirebaseConfig proyecto y credenciales para Firestore, Firebase Auth y FCM.
// CredentialsFile vacío = Application Default Credentials.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// Canales de entrega de alertas.
const (
	AlertDeliveryLog = "log"
	AlertDeliveryFCM = "fcm"
)

// AlertsConfig configuración del servicio local de alertas.
type AlertsConfig struct {
	Enabled     bool   // false simula permiso denegado: toda programación falla
	Delivery    string // log | fcm
	TopicPrefix string // tópico FCM por usuario: <prefix><userID>
}

// ReminderConfig parámetros del programador de recordatorios.
type ReminderConfig struct {
	MinLeadMinutes int // recordatorios en el pasado se mueven a ahora + MinLeadMinutes
}

// MinLead devuelve MinLeadMinutes como duración.
func (c ReminderConfig) MinLead() time.Duration {
	return time.Duration(c.MinLeadMinutes) * time.Minute
}

// SessionConfig parámetros de las sesiones de sincronización.
type SessionConfig struct {
	RefreshSeconds int
	IdleMinutes    int
}

// RefreshInterval intervalo de recálculo de vistas derivadas.
func (c SessionConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// IdleTimeout tiempo sin uso tras el cual se cierra una sesión.
func (c SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleMinutes) * time.Minute
}

// StorageConfig bucket de GCS para las fotos de stock (vacío = deshabilitado).
type StorageConfig struct {
	Bucket        string
	MaxImageBytes int
}

// MetricsConfig exposición de métricas Prometheus.
type MetricsConfig struct {
	Enabled bool
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, STORE_DRIVER, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "despensa-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "despensa-api"),
		},
		Auth: AuthConfig{
			Provider: strings.ToLower(getString(v, "AUTH_PROVIDER", AuthProviderJWT)),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getString(v, "STORE_DRIVER", StoreDriverMemory)),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "despensa"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    int32(getInt(v, "DB_MAX_CONNS", 10)),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getString(v, "FIREBASE_PROJECT_ID", getString(v, "GOOGLE_CLOUD_PROJECT", "")),
			CredentialsFile: getString(v, "FIREBASE_CREDENTIALS_FILE", getString(v, "GOOGLE_APPLICATION_CREDENTIALS", "")),
		},
		Alerts: AlertsConfig{
			Enabled:     getBool(v, "ALERTS_ENABLED", true),
			Delivery:    strings.ToLower(getString(v, "ALERTS_DELIVERY", AlertDeliveryLog)),
			TopicPrefix: getString(v, "FCM_TOPIC_PREFIX", "stock-"),
		},
		Reminders: ReminderConfig{
			MinLeadMinutes: getInt(v, "REMINDER_MIN_LEAD_MINUTES", 5),
		},
		Session: SessionConfig{
			RefreshSeconds: getInt(v, "SESSION_REFRESH_SECONDS", 60),
			IdleMinutes:    getInt(v, "SESSION_IDLE_MINUTES", 30),
		},
		Storage: StorageConfig{
			Bucket:        getString(v, "GCS_BUCKET", ""),
			MaxImageBytes: getInt(v, "IMAGE_MAX_BYTES", 5<<20),
		},
		Metrics: MetricsConfig{
			Enabled: getBool(v, "METRICS_ENABLED", true),
		},
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverMemory, StoreDriverPostgres:
	case StoreDriverFirestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("config: STORE_DRIVER=firestore requiere FIREBASE_PROJECT_ID")
		}
	default:
		return fmt.Errorf("config: STORE_DRIVER desconocido %q", c.Store.Driver)
	}
	switch c.Auth.Provider {
	case AuthProviderJWT:
		if c.JWT.Secret == "" && c.App.Env == "production" {
			return fmt.Errorf("config: JWT_SECRET es obligatorio en production")
		}
	case AuthProviderFirebase:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("config: AUTH_PROVIDER=firebase requiere FIREBASE_PROJECT_ID")
		}
	default:
		return fmt.Errorf("config: AUTH_PROVIDER desconocido %q", c.Auth.Provider)
	}
	if c.Alerts.Delivery != AlertDeliveryLog && c.Alerts.Delivery != AlertDeliveryFCM {
		return fmt.Errorf("config: ALERTS_DELIVERY desconocido %q", c.Alerts.Delivery)
	}
	if c.Reminders.MinLeadMinutes <= 0 {
		c.Reminders.MinLeadMinutes = 5
	}
	if c.Session.RefreshSeconds <= 0 {
		c.Session.RefreshSeconds = 60
	}
	if c.Session.IdleMinutes <= 0 {
		c.Session.IdleMinutes = 30
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
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
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
