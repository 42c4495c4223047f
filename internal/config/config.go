package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bernyforce/llm-council/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults used when neither the council file nor the environment set a value.
var (
	DefaultCouncilModels = []string{
		"openai/gpt-4-turbo",
		"anthropic/claude-3-opus-20240229",
		"google/gemini-pro",
	}
	DefaultChairmanModel = "google/gemini-pro"
)

// Load reads the .env file specified by COUNCIL_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("COUNCIL_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8001
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func OpenRouterAPIKey() string {
	return os.Getenv("OPENROUTER_API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func CerebrasAPIKey() string {
	return os.Getenv("CEREBRAS_API_KEY")
}

// LLMProvider returns the configured LLM provider.
// Defaults to "openrouter" if not set.
// Valid values: openrouter, openai, anthropic, gemini, cerebras, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "openrouter"
	}
	return p
}

// LLMAPIKey returns the API key for the configured LLM provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "openai":
		return OpenAIAPIKey()
	case "anthropic":
		return AnthropicAPIKey()
	case "gemini":
		return GeminiAPIKey()
	case "cerebras":
		return CerebrasAPIKey()
	case "mock":
		return ""
	default:
		return OpenRouterAPIKey()
	}
}

// CouncilFile returns the optional YAML council definition path.
func CouncilFile() string {
	return os.Getenv("COUNCIL_CONFIG_FILE")
}

// SessionStore returns the persistence backend: file, postgres or redis.
// Defaults to "file".
func SessionStore() string {
	s := os.Getenv("SESSION_STORE")
	if s == "" {
		return "file"
	}
	return s
}

// DataDir is where the file store writes one JSON document per session.
func DataDir() string {
	d := os.Getenv("DATA_DIR")
	if d == "" {
		return "data/conversations"
	}
	return d
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func RedisURL() string {
	u := os.Getenv("REDIS_URL")
	if u == "" {
		return "redis://localhost:6379/0"
	}
	return u
}

// FrontendDir is the built frontend served at / when it exists.
func FrontendDir() string {
	d := os.Getenv("FRONTEND_DIR")
	if d == "" {
		return "frontend/dist"
	}
	return d
}

// CORSAllowedOrigins returns the comma-separated allow list. Defaults to "*".
func CORSAllowedOrigins() []string {
	v := os.Getenv("CORS_ALLOWED_ORIGINS")
	if v == "" {
		return []string{"*"}
	}
	return splitList(v)
}

// RateLimitRPS returns the per-IP request rate for the /api routes.
// Zero, the default, disables inbound rate limiting.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 0
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// Settings is the process-wide configuration, read once at startup and
// passed down by value.
type Settings struct {
	Provider       string
	APIKey         string
	Council        domain.Council
	Timeout        time.Duration
	MaxConcurrency int
}

// councilFile is the YAML council definition.
type councilFile struct {
	Members        []string `yaml:"members"`
	Chairman       string   `yaml:"chairman"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxConcurrency int      `yaml:"max_concurrency"`
}

// Council resolves the council definition. Precedence: defaults, then the
// YAML file named by COUNCIL_CONFIG_FILE, then COUNCIL_MODELS /
// CHAIRMAN_MODEL / LLM_TIMEOUT_SECONDS / COUNCIL_MAX_CONCURRENCY.
func Council() (Settings, error) {
	s := Settings{
		Provider: LLMProvider(),
		APIKey:   LLMAPIKey(),
		Council: domain.Council{
			Members:  append([]string(nil), DefaultCouncilModels...),
			Chairman: DefaultChairmanModel,
		},
		Timeout: 30 * time.Second,
	}

	if path := CouncilFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read council file: %w", err)
		}
		var f councilFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Settings{}, fmt.Errorf("parse council file %s: %w", path, err)
		}
		if len(f.Members) > 0 {
			s.Council.Members = f.Members
		}
		if f.Chairman != "" {
			s.Council.Chairman = f.Chairman
		}
		if f.TimeoutSeconds > 0 {
			s.Timeout = time.Duration(f.TimeoutSeconds) * time.Second
		}
		if f.MaxConcurrency > 0 {
			s.MaxConcurrency = f.MaxConcurrency
		}
	}

	if v := os.Getenv("COUNCIL_MODELS"); v != "" {
		members, err := parseModelList(v)
		if err != nil {
			return Settings{}, fmt.Errorf("COUNCIL_MODELS: %w", err)
		}
		s.Council.Members = members
	}
	if v := os.Getenv("CHAIRMAN_MODEL"); v != "" {
		s.Council.Chairman = v
	}
	if v := os.Getenv("LLM_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return Settings{}, fmt.Errorf("LLM_TIMEOUT_SECONDS: invalid value %q", v)
		}
		s.Timeout = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("COUNCIL_MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Settings{}, fmt.Errorf("COUNCIL_MAX_CONCURRENCY: invalid value %q", v)
		}
		s.MaxConcurrency = n
	}

	if err := s.Council.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// parseModelList accepts a JSON array (the documented form) or a plain
// comma-separated list.
func parseModelList(v string) ([]string, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "[") {
		var members []string
		if err := json.Unmarshal([]byte(v), &members); err != nil {
			return nil, fmt.Errorf("invalid JSON list: %w", err)
		}
		return members, nil
	}
	return splitList(v), nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
