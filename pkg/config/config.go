package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de infraestructura (lectura vía Viper desde env y opcionalmente archivo).
// La configuración de negocio (NIT, credenciales de software, ambiente DIAN) vive en la
// tabla settings y se edita desde la API; aquí solo quedan los valores de arranque.
type Config struct {
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	APIDian  APIDianConfig
	Dispatch DispatchConfig
	Folder   FolderConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string // trace, debug, info, warn, error
	Storage  string // postgres | memory
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

// JWTConfig configuración de los tokens de estación.
type JWTConfig struct {
	Secret        string
	Expiration    int // minutos
	Issuer        string
	StationSecret string // clave compartida para POST /api/auth/token; vacía deshabilita el login
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

// APIDianConfig transporte hacia la API de facturación.
// BaseURL solo se usa para sembrar settings en el primer arranque.
type APIDianConfig struct {
	BaseURL          string
	Timeout          time.Duration
	BreakerFailures  uint32        // fallos consecutivos antes de abrir el circuito
	BreakerOpenFor   time.Duration // tiempo en estado abierto
	MaxResponseBytes int64
}

// DispatchConfig envío de documentos pendientes.
type DispatchConfig struct {
	Workers         int
	AutoAfterIngest bool
	MaxMessageRunes int
}

// FolderConfig carpeta de XMLs exportados por el POS.
// Los valores de settings (watch_folder/processed_folder) tienen prioridad si están definidos.
type FolderConfig struct {
	Watch        string
	Processed    string
	Failed       string
	ScanInterval time.Duration
	UseFSNotify  bool
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, APIDIAN_URL, FOLDER_WATCH, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "facturador-dian"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
			Storage:  getString(v, "APP_STORAGE", "postgres"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "facturador"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret:        getString(v, "JWT_SECRET", ""),
			Expiration:    getInt(v, "JWT_EXPIRATION_MINUTES", 60*12),
			Issuer:        getString(v, "JWT_ISSUER", "facturador-dian"),
			StationSecret: getString(v, "STATION_SECRET", ""),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		APIDian: APIDianConfig{
			BaseURL:          getString(v, "APIDIAN_URL", "https://apidian.clipers.pro/api/ubl2.1"),
			Timeout:          time.Duration(getInt(v, "APIDIAN_TIMEOUT_SECONDS", 60)) * time.Second,
			BreakerFailures:  uint32(getInt(v, "APIDIAN_BREAKER_FAILURES", 5)),
			BreakerOpenFor:   time.Duration(getInt(v, "APIDIAN_BREAKER_OPEN_SECONDS", 30)) * time.Second,
			MaxResponseBytes: int64(getInt(v, "APIDIAN_MAX_RESPONSE_BYTES", 4<<20)),
		},
		Dispatch: DispatchConfig{
			Workers:         getInt(v, "DISPATCH_WORKERS", 2),
			AutoAfterIngest: getBool(v, "DISPATCH_AUTO_AFTER_INGEST", false),
			MaxMessageRunes: getInt(v, "DISPATCH_MAX_MESSAGE_RUNES", 1000),
		},
		Folder: FolderConfig{
			Watch:        getString(v, "FOLDER_WATCH", ""),
			Processed:    getString(v, "FOLDER_PROCESSED", ""),
			Failed:       getString(v, "FOLDER_FAILED", ""),
			ScanInterval: time.Duration(getInt(v, "FOLDER_SCAN_INTERVAL_SECONDS", 30)) * time.Second,
			UseFSNotify:  getBool(v, "FOLDER_FSNOTIFY", true),
		},
	}

	if cfg.App.Storage != "postgres" && cfg.App.Storage != "memory" {
		return nil, fmt.Errorf("config: APP_STORAGE inválido %q (usar postgres|memory)", cfg.App.Storage)
	}
	if cfg.Dispatch.Workers <= 0 {
		cfg.Dispatch.Workers = 1
	}
	return cfg, nil
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
