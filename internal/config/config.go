package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		Env       string `yaml:"env"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	Session struct {
		// TTL is the inactivity window in minutes; expired sessions
		// resolve the same as absent ones.
		TTL        int    `yaml:"ttl"`
		CookieName string `yaml:"cookie_name"`
		Secure     bool   `yaml:"secure"`
		// Store selects "memory" or "database".
		Store string `yaml:"store"`
	} `yaml:"session"`

	Google struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURL  string `yaml:"redirect_url"`
	} `yaml:"google"`

	Stripe struct {
		SecretKey     string `yaml:"secret_key"`
		WebhookSecret string `yaml:"webhook_secret"`
	} `yaml:"stripe"`

	Gemini struct {
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"gemini"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	Invite struct {
		Secret string `yaml:"secret"`
		// TTL in hours
		TTL int `yaml:"ttl"`
	} `yaml:"invite"`

	// Always taken from the environment, never from config.yaml.
	FirstAdminEmail    string `yaml:"-"`
	FirstAdminPassword string `yaml:"-"`
}

var AppConfig *Config

// LoadConfig reads config.yaml, falling back to environment variables when
// DATABASE_URL is set (test and container deployments).
func LoadConfig() {
	var cfg Config

	// .env is optional and only used for local development
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")

	cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.Server.PublicURL = os.Getenv("PUBLIC_URL")

	cfg.Session.TTL, _ = strconv.Atoi(os.Getenv("SESSION_TTL"))
	cfg.Session.CookieName = os.Getenv("SESSION_COOKIE_NAME")
	cfg.Session.Store = os.Getenv("SESSION_STORE")
	cfg.Session.Secure = os.Getenv("SESSION_SECURE") == "true"

	cfg.Google.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.Google.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.Google.RedirectURL = os.Getenv("GOOGLE_REDIRECT_URL")

	cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Stripe.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")

	cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")

	cfg.Email.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.Email.SMTPPort, _ = strconv.Atoi(os.Getenv("SMTP_PORT"))
	cfg.Email.SMTPUser = os.Getenv("SMTP_USER")
	cfg.Email.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.Email.FromEmail = os.Getenv("SMTP_FROM")
	cfg.Email.FromName = os.Getenv("SMTP_FROM_NAME")

	cfg.Invite.Secret = os.Getenv("INVITE_SECRET")
	cfg.Invite.TTL, _ = strconv.Atoi(os.Getenv("INVITE_TTL"))

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 60
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "dthink_session"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "memory"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-1.5-flash"
	}
	if cfg.Gemini.BaseURL == "" {
		cfg.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Invite.TTL <= 0 {
		cfg.Invite.TTL = 72
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
