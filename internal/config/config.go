package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cortexmem/recall/internal/domain"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Load reads the .env file specified by RECALL_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("RECALL_ENV")
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
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// EmbeddingProvider returns the configured embedding provider.
// Valid values: openai, mock. Defaults to "openai" if not set.
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// ProfilePath returns the sidecar path for the persisted arbitration profile.
func ProfilePath() string {
	p := os.Getenv("ARBITRATION_PROFILE_PATH")
	if p == "" {
		return "arbitration_profile.json"
	}
	return p
}

// RateLimitRPS returns requests per second limit. Defaults to 100.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting. Defaults to 20.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error). Defaults to "info".
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// Retrieval assembles the full retrieval configuration from env vars,
// starting from built-in defaults. A malformed value never refuses to serve:
// it falls back to the default with a one-time warning.
func Retrieval(logger *zap.Logger) domain.RetrievalConfig {
	cfg := domain.DefaultRetrievalConfig()
	r := reader{logger: logger}

	// Scoring
	cfg.Scoring.Weights.Similarity = r.float("SCORE_WEIGHT_SIMILARITY", cfg.Scoring.Weights.Similarity)
	cfg.Scoring.Weights.Recency = r.float("SCORE_WEIGHT_RECENCY", cfg.Scoring.Weights.Recency)
	cfg.Scoring.Weights.Credibility = r.float("SCORE_WEIGHT_CREDIBILITY", cfg.Scoring.Weights.Credibility)
	cfg.Scoring.Weights.Confidence = r.float("SCORE_WEIGHT_CONFIDENCE", cfg.Scoring.Weights.Confidence)
	cfg.Scoring.Weights.BeliefAlignment = r.float("SCORE_WEIGHT_BELIEF", cfg.Scoring.Weights.BeliefAlignment)
	cfg.Scoring.Weights.Usage = r.float("SCORE_WEIGHT_USAGE", cfg.Scoring.Weights.Usage)
	cfg.Scoring.Weights.Novelty = r.float("SCORE_WEIGHT_NOVELTY", cfg.Scoring.Weights.Novelty)
	cfg.Scoring.RecencyDecayLambda = r.float("SCORE_RECENCY_DECAY_LAMBDA", cfg.Scoring.RecencyDecayLambda)
	cfg.Scoring.BeliefSmoothing = r.float("SCORE_BELIEF_SMOOTHING", cfg.Scoring.BeliefSmoothing)
	cfg.Scoring.ImportantTagPrefix = r.str("SCORE_IMPORTANT_TAG_PREFIX", cfg.Scoring.ImportantTagPrefix)
	cfg.Scoring.ImportantTagBoost = r.float("SCORE_IMPORTANT_TAG_BOOST", cfg.Scoring.ImportantTagBoost)
	cfg.Scoring.ConflictEnabled = r.boolean("SCORE_CONFLICT_PENALTY_ENABLED", cfg.Scoring.ConflictEnabled)
	cfg.Scoring.ConflictPenalty = r.float("SCORE_CONFLICT_PENALTY", cfg.Scoring.ConflictPenalty)

	// Selection
	cfg.Selection.Threshold = r.float("SELECT_THRESHOLD", cfg.Selection.Threshold)
	cfg.Selection.DynamicThresholdEnabled = r.boolean("SELECT_DYNAMIC_THRESHOLD", cfg.Selection.DynamicThresholdEnabled)
	cfg.Selection.FloorThreshold = r.float("SELECT_FLOOR_THRESHOLD", cfg.Selection.FloorThreshold)
	cfg.Selection.Top1FallbackEnabled = r.boolean("SELECT_TOP1_FALLBACK", cfg.Selection.Top1FallbackEnabled)
	cfg.Selection.MinResults = r.integer("SELECT_MIN_RESULTS", cfg.Selection.MinResults)
	cfg.Selection.KeywordBoostEnabled = r.boolean("SELECT_KEYWORD_BOOST", cfg.Selection.KeywordBoostEnabled)
	cfg.Selection.KeywordBoostUnit = r.float("SELECT_KEYWORD_BOOST_UNIT", cfg.Selection.KeywordBoostUnit)
	cfg.Selection.MMREnabled = r.boolean("SELECT_MMR_ENABLED", cfg.Selection.MMREnabled)
	cfg.Selection.MMRLambda = r.float("SELECT_MMR_LAMBDA", cfg.Selection.MMRLambda)
	cfg.Selection.MMRK = r.integer("SELECT_MMR_K", cfg.Selection.MMRK)

	// Resilient store access
	cfg.Fetch.Timeout = r.duration("FETCH_TIMEOUT", cfg.Fetch.Timeout)
	cfg.Fetch.MaxRetries = r.integer("FETCH_MAX_RETRIES", cfg.Fetch.MaxRetries)
	cfg.Fetch.BackoffBase = r.duration("FETCH_BACKOFF_BASE", cfg.Fetch.BackoffBase)
	cfg.Fetch.FailureLimit = r.integer("BREAKER_FAILURE_LIMIT", cfg.Fetch.FailureLimit)
	cfg.Fetch.OpenDuration = r.duration("BREAKER_OPEN_DURATION", cfg.Fetch.OpenDuration)

	// Arbitration
	cfg.Arbitration.Enabled = r.boolean("ARBITRATION_ENABLED", cfg.Arbitration.Enabled)
	if p := r.str("ARBITRATION_CONFLICT_POLICY", string(cfg.Arbitration.ConflictPolicy)); domain.ValidConflictPolicy(p) {
		cfg.Arbitration.ConflictPolicy = domain.ConflictPolicy(p)
	} else if p != string(cfg.Arbitration.ConflictPolicy) {
		r.warn("ARBITRATION_CONFLICT_POLICY", p)
	}
	cfg.Arbitration.ConflictEpsilon = r.float("ARBITRATION_CONFLICT_EPSILON", cfg.Arbitration.ConflictEpsilon)
	cfg.Arbitration.UncertainMargin = r.float("ARBITRATION_UNCERTAIN_MARGIN", cfg.Arbitration.UncertainMargin)
	cfg.Arbitration.MaxShift = r.float("ARBITRATION_MAX_SHIFT", cfg.Arbitration.MaxShift)
	cfg.Arbitration.Damping = r.float("ARBITRATION_DAMPING", cfg.Arbitration.Damping)
	cfg.Arbitration.WeightFloor = r.float("ARBITRATION_WEIGHT_FLOOR", cfg.Arbitration.WeightFloor)
	cfg.Arbitration.LearnInterval = r.duration("ARBITRATION_LEARN_INTERVAL", cfg.Arbitration.LearnInterval)
	cfg.Arbitration.SignalWindow = r.duration("ARBITRATION_SIGNAL_WINDOW", cfg.Arbitration.SignalWindow)
	cfg.Arbitration.MinSignals = r.integer("ARBITRATION_MIN_SIGNALS", cfg.Arbitration.MinSignals)

	cfg.DefaultTopK = r.integer("RETRIEVE_DEFAULT_TOP_K", cfg.DefaultTopK)

	return cfg
}

// reader reads typed env vars, warning once per malformed value.
type reader struct {
	logger *zap.Logger
}

func (r reader) warn(key, raw string) {
	if r.logger != nil {
		r.logger.Warn("invalid config value, using default",
			zap.String("key", key),
			zap.String("value", raw))
	}
}

func (r reader) str(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func (r reader) float(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.warn(key, raw)
		return def
	}
	return v
}

func (r reader) integer(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.warn(key, raw)
		return def
	}
	return v
}

func (r reader) boolean(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.warn(key, raw)
		return def
	}
	return v
}

func (r reader) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.warn(key, raw)
		return def
	}
	return v
}
