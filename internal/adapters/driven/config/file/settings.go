package file

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// DefaultDotEnvPath is read when Loader.DotEnvPath is empty.
const DefaultDotEnvPath = ".env"

// ConfigFileEnv names the environment variable that points at a TOML file.
const ConfigFileEnv = "CONFIG_FILE"

// Loader resolves domain.Settings from layered sources.
// Precedence, lowest first: defaults, TOML file, .env file, process environment.
type Loader struct {
	// ConfigPath is an optional TOML file. Falls back to $CONFIG_FILE.
	ConfigPath string

	// DotEnvPath is an optional .env file. A missing file is ignored.
	DotEnvPath string

	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// binding maps one setting to its environment name and TOML key.
type binding struct {
	env   string
	key   string
	apply func(s *domain.Settings, v string) error
}

var bindings = []binding{
	{"LLM_PROVIDER", "llm.provider", func(s *domain.Settings, v string) error {
		s.LLM.Provider = domain.LLMProvider(strings.ToLower(v))
		return nil
	}},
	{"OPENAI_API_KEY", "openai.api_key", func(s *domain.Settings, v string) error {
		s.LLM.OpenAIAPIKey = v
		return nil
	}},
	{"OPENAI_BASE_URL", "openai.base_url", func(s *domain.Settings, v string) error {
		s.LLM.OpenAIBaseURL = v
		return nil
	}},
	{"OPENAI_MODEL", "openai.model", func(s *domain.Settings, v string) error {
		s.LLM.OpenAIModel = v
		return nil
	}},
	{"OLLAMA_HOST", "ollama.host", func(s *domain.Settings, v string) error {
		s.LLM.OllamaHost = v
		return nil
	}},
	{"OLLAMA_MODEL", "ollama.model", func(s *domain.Settings, v string) error {
		s.LLM.OllamaModel = v
		return nil
	}},
	{"ANTHROPIC_API_KEY", "anthropic.api_key", func(s *domain.Settings, v string) error {
		s.LLM.AnthropicAPIKey = v
		return nil
	}},
	{"ANTHROPIC_MODEL", "anthropic.model", func(s *domain.Settings, v string) error {
		s.LLM.AnthropicModel = v
		return nil
	}},
	{"LLM_TIMEOUT", "llm.timeout", func(s *domain.Settings, v string) error {
		return setDuration(&s.LLM.Timeout, v)
	}},
	{"LLM_VALIDATE_ON_START", "llm.validate_on_start", func(s *domain.Settings, v string) error {
		return setBool(&s.LLM.ValidateOnStart, v)
	}},
	{"EMBEDDING_PROVIDER", "embedding.provider", func(s *domain.Settings, v string) error {
		s.Embedding.Provider = domain.EmbeddingProvider(strings.ToLower(v))
		return nil
	}},
	{"EMBEDDING_MODEL", "embedding.model", func(s *domain.Settings, v string) error {
		s.Embedding.Model = v
		return nil
	}},
	{"EMBEDDING_DIM", "embedding.dimensions", func(s *domain.Settings, v string) error {
		return setInt(&s.Embedding.Dimensions, v)
	}},
	{"EMBEDDING_MODEL_DIR", "embedding.model_dir", func(s *domain.Settings, v string) error {
		s.Embedding.ModelDir = v
		return nil
	}},
	{"VECTOR_STORE", "vector.store", func(s *domain.Settings, v string) error {
		s.Vector.Kind = domain.VectorStoreKind(strings.ToLower(v))
		return nil
	}},
	{"COLLECTION_NAME", "vector.collection", func(s *domain.Settings, v string) error {
		s.Vector.Collection = v
		return nil
	}},
	{"VECTOR_STORE_TIMEOUT", "vector.timeout", func(s *domain.Settings, v string) error {
		return setDuration(&s.Vector.Timeout, v)
	}},
	{"QDRANT_HOST", "qdrant.host", func(s *domain.Settings, v string) error {
		s.Vector.QdrantHost = v
		return nil
	}},
	{"QDRANT_PORT", "qdrant.port", func(s *domain.Settings, v string) error {
		return setInt(&s.Vector.QdrantPort, v)
	}},
	{"QDRANT_API_KEY", "qdrant.api_key", func(s *domain.Settings, v string) error {
		s.Vector.QdrantAPIKey = v
		return nil
	}},
	{"QDRANT_USE_TLS", "qdrant.use_tls", func(s *domain.Settings, v string) error {
		return setBool(&s.Vector.QdrantUseTLS, v)
	}},
	{"CHROMEM_PATH", "chromem.path", func(s *domain.Settings, v string) error {
		s.Vector.ChromemPath = v
		return nil
	}},
	{"CHUNK_SIZE", "retrieval.chunk_size", func(s *domain.Settings, v string) error {
		return setInt(&s.Retrieval.ChunkSize, v)
	}},
	{"CHUNK_OVERLAP", "retrieval.chunk_overlap", func(s *domain.Settings, v string) error {
		return setInt(&s.Retrieval.ChunkOverlap, v)
	}},
	{"DEFAULT_K", "retrieval.default_k", func(s *domain.Settings, v string) error {
		return setInt(&s.Retrieval.DefaultK, v)
	}},
	{"RETRIEVAL_OVERSAMPLE", "retrieval.oversample", func(s *domain.Settings, v string) error {
		return setInt(&s.Retrieval.Oversample, v)
	}},
	{"MMR_ENABLED", "retrieval.mmr_enabled", func(s *domain.Settings, v string) error {
		return setBool(&s.Retrieval.MMREnabled, v)
	}},
	{"MMR_LAMBDA", "retrieval.mmr_lambda", func(s *domain.Settings, v string) error {
		return setFloat(&s.Retrieval.MMRLambda, v)
	}},
	{"DATA_DIR", "ingest.data_dir", func(s *domain.Settings, v string) error {
		s.Ingest.DataDir = v
		return nil
	}},
	{"DATA_RECURSIVE", "ingest.recursive", func(s *domain.Settings, v string) error {
		return setBool(&s.Ingest.Recursive, v)
	}},
	{"WATCH_DATA_DIR", "ingest.watch", func(s *domain.Settings, v string) error {
		return setBool(&s.Ingest.Watch, v)
	}},
	{"WATCH_DEBOUNCE", "ingest.watch_debounce", func(s *domain.Settings, v string) error {
		return setDuration(&s.Ingest.WatchDebounce, v)
	}},
	{"INGEST_WORKERS", "ingest.workers", func(s *domain.Settings, v string) error {
		return setInt(&s.Ingest.Workers, v)
	}},
	{"REGISTRY_PATH", "ingest.registry_path", func(s *domain.Settings, v string) error {
		s.Ingest.RegistryPath = v
		return nil
	}},
	{"HTTP_ADDR", "server.http_addr", func(s *domain.Settings, v string) error {
		s.Server.HTTPAddr = v
		return nil
	}},
	{"LOG_LEVEL", "server.log_level", func(s *domain.Settings, v string) error {
		s.Server.LogLevel = strings.ToLower(v)
		return nil
	}},
	{"LOG_FORMAT", "server.log_format", func(s *domain.Settings, v string) error {
		s.Server.LogFormat = strings.ToLower(v)
		return nil
	}},
}

// envAliases lists alternative names consulted when the primary is unset.
var envAliases = map[string]string{
	"OPENAI_API_KEY": "API_KEY",
}

// Load resolves the settings. Malformed values are skipped and reported as
// warnings; only an unreadable config or .env file is an error.
func (l Loader) Load() (domain.Settings, []string, error) {
	settings := domain.DefaultSettings()
	var warnings []string

	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	configPath := l.ConfigPath
	if configPath == "" {
		configPath, _ = lookup(ConfigFileEnv)
	}
	store, err := NewConfigStore(configPath)
	if err != nil {
		return settings, nil, err
	}

	dotenv, err := readDotEnv(l.DotEnvPath)
	if err != nil {
		return settings, nil, err
	}

	resolve := func(b binding) (string, string, bool) {
		names := []string{b.env}
		if alias, ok := envAliases[b.env]; ok {
			names = append(names, alias)
		}
		for _, name := range names {
			if v, ok := lookup(name); ok && v != "" {
				return name, v, true
			}
		}
		for _, name := range names {
			if v, ok := dotenv[name]; ok && v != "" {
				return name, v, true
			}
		}
		if v, ok := store.Get(b.key); ok {
			return b.key, tomlString(v), true
		}
		return "", "", false
	}

	for _, b := range bindings {
		source, value, ok := resolve(b)
		if !ok {
			continue
		}
		if err := b.apply(&settings, strings.TrimSpace(value)); err != nil {
			warnings = append(warnings, fmt.Sprintf("ignoring %s=%q: %v", source, value, err))
		}
	}

	return settings, warnings, nil
}

func readDotEnv(path string) (map[string]string, error) {
	if path == "" {
		path = DefaultDotEnvPath
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return values, nil
}

// tomlString renders a decoded TOML scalar the way it would appear in an env var.
func tomlString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("not an integer")
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	*dst = f
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		switch strings.ToLower(v) {
		case "yes", "on":
			b = true
		case "no", "off":
			b = false
		default:
			return fmt.Errorf("not a boolean")
		}
	}
	*dst = b
	return nil
}

// setDuration accepts Go durations ("20s") or bare seconds ("20", "1.5").
func setDuration(dst *time.Duration, v string) error {
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return fmt.Errorf("not a duration")
	}
	*dst = time.Duration(secs * float64(time.Second))
	return nil
}
