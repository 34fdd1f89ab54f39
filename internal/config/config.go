package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	Workers struct {
		PoolSize  int           `yaml:"pool_size" default:"4"`
		QueueSize int           `yaml:"queue_size" default:"32"`
		RateLimit int           `yaml:"rate_limit" default:"30"` // requests per minute per provider
		Timeout   time.Duration `yaml:"timeout" default:"120s"`
	} `yaml:"workers"`

	Session struct {
		Mode            string        `yaml:"mode" default:"stealth"` // fast, stealth, aggressive
		RequestTimeout  time.Duration `yaml:"request_timeout" default:"30s"`
		MaxRetries      int           `yaml:"max_retries" default:"3"`
		StealthInterval time.Duration `yaml:"stealth_interval" default:"1500ms"`
		AggroInterval   time.Duration `yaml:"aggro_interval" default:"800ms"`
		Proxies         []string      `yaml:"proxies"`
		ProxyParallel   int           `yaml:"proxy_parallel" default:"2"` // in-flight requests per proxy endpoint
	} `yaml:"session"`

	Provider struct {
		Name     string `yaml:"name" default:"job_room"`
		BaseURL  string `yaml:"base_url"` // override for testing; empty means the provider default
		MaxPages int    `yaml:"max_pages" default:"10"`
		PageSize int    `yaml:"page_size" default:"20"`
	} `yaml:"provider"`

	BFS struct {
		DatasetPath    string  `yaml:"dataset_path"` // empty means the embedded reference dataset
		FuzzyThreshold float64 `yaml:"fuzzy_threshold" default:"0.72"`
	} `yaml:"bfs"`

	LLM struct {
		Provider    string        `yaml:"provider" default:"claude"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model" default:"claude-3-haiku-20240307"`
		MaxTokens   int           `yaml:"max_tokens" default:"4096"`
		Temperature float32       `yaml:"temperature" default:"0.1"`
		Timeout     time.Duration `yaml:"timeout" default:"60s"`
		Concurrency int           `yaml:"concurrency" default:"4"`
	} `yaml:"llm"`

	Storage struct {
		Path string `yaml:"path" default:"data"`
	} `yaml:"storage"`

	Redis struct {
		URL      string        `yaml:"url"` // empty disables the response cache
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"10m"`
	} `yaml:"redis"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.Workers.PoolSize = 4
	config.Workers.QueueSize = 32
	config.Workers.RateLimit = 30
	config.Workers.Timeout = 120 * time.Second

	config.Session.Mode = "stealth"
	config.Session.RequestTimeout = 30 * time.Second
	config.Session.MaxRetries = 3
	config.Session.StealthInterval = 1500 * time.Millisecond
	config.Session.AggroInterval = 800 * time.Millisecond
	config.Session.ProxyParallel = 2

	config.Provider.Name = "job_room"
	config.Provider.MaxPages = 10
	config.Provider.PageSize = 20

	config.BFS.FuzzyThreshold = 0.72

	config.LLM.Provider = "claude"
	config.LLM.Model = "claude-3-haiku-20240307"
	config.LLM.MaxTokens = 4096
	config.LLM.Temperature = 0.1
	config.LLM.Timeout = 60 * time.Second
	config.LLM.Concurrency = 4

	config.Storage.Path = "data"

	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second
	config.Redis.CacheTTL = 10 * time.Minute

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if mode := os.Getenv("SESSION_MODE"); mode != "" {
		c.Session.Mode = mode
	}

	if proxies := os.Getenv("SESSION_PROXIES"); proxies != "" {
		c.Session.Proxies = splitAndTrim(proxies)
	}

	if provider := os.Getenv("PROVIDER_NAME"); provider != "" {
		c.Provider.Name = provider
	}

	if baseURL := os.Getenv("PROVIDER_BASE_URL"); baseURL != "" {
		c.Provider.BaseURL = baseURL
	}

	if maxPages := os.Getenv("PROVIDER_MAX_PAGES"); maxPages != "" {
		if mp, err := strconv.Atoi(maxPages); err == nil {
			c.Provider.MaxPages = mp
		}
	}

	if dataset := os.Getenv("BFS_DATASET_PATH"); dataset != "" {
		c.BFS.DatasetPath = dataset
	}

	if threshold := os.Getenv("BFS_FUZZY_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			c.BFS.FuzzyThreshold = t
		}
	}

	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if storagePath := os.Getenv("STORAGE_PATH"); storagePath != "" {
		c.Storage.Path = storagePath
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
