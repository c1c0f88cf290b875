package config

import (
	_ "embed"
	"os"
	"strconv"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

type Config struct {
	Camera      CameraConfig
	Recognition RecognitionConfig
	Encoder     EncoderConfig
	Database    DatabaseConfig
	Roster      RosterConfig
	Paths       PathsConfig
	UI          UIConfig
	Admin       AdminConfig
	Models      ModelsConfig
}

type CameraConfig struct {
	Index       int    // camera device index, consumed by the frame daemon
	FrameWidth  int    // capture frame width in pixels
	FrameHeight int    // capture frame height in pixels
	FPS         int    // capture frame rate
	SpoolDir    string // directory the frame daemon drops images into
}

type RecognitionConfig struct {
	Tolerance        float64 // maximum embedding distance for a match, clamped to 0.4-0.8
	Model            string  // detection model: hog or cnn
	FrameSampling    int     // process every Nth frame
	DisplayThreshold float64 // minimum confidence to record and display a match
	EmbeddingDim     int     // embedding vector length (default 128)
}

type EncoderConfig struct {
	URL            string // face encoder service base URL (e.g. http://localhost:8100)
	TimeoutSeconds int    // request timeout (default 30)
}

type DatabaseConfig struct {
	Driver        string // sqlite (default) or postgres
	SQLitePath    string // path to the sqlite database file
	PostgresURL   string // PostgreSQL connection URL
	MaxOpenConns  int    // maximum open connections (default 25)
	MaxIdleConns  int    // maximum idle connections (default 5)
	HNSWIndexPath string // path to persist the encoding HNSW index (optional)
}

type RosterConfig struct {
	MySQLDSN string // external roster system DSN (e.g. user:pass@tcp(host:3306)/school)
}

type PathsConfig struct {
	ExportDir string // directory for generated report files
	LogDir    string // directory for dated log files
	PhotoDir  string // directory for registered student photos
}

type UIConfig struct {
	Theme        string // front-end theme name, passed through to the dashboard
	WindowWidth  int
	WindowHeight int
}

type AdminConfig struct {
	Username     string
	passwordHash string // bcrypt hash of the admin password
}

// GetPasswordHash returns the bcrypt hash of the admin password.
func (a *AdminConfig) GetPasswordHash() string {
	return a.passwordHash
}

type ModelsConfig struct {
	Models map[string]ModelPreset `yaml:"models"`
}

// ModelPreset describes detector parameters forwarded to the encoder service.
type ModelPreset struct {
	Description string `yaml:"description"`
	MinFacePx   int    `yaml:"min_face_px"`
	Upsample    int    `yaml:"upsample"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envIndex reads an environment variable as a non-negative integer.
// Unlike envInt, zero is a valid value (camera device indexes start at 0).
func envIndex(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// clampTolerance keeps the recognition tolerance within the supported range.
func clampTolerance(t float64) float64 {
	if t < constants.MinTolerance {
		return constants.MinTolerance
	}
	if t > constants.MaxTolerance {
		return constants.MaxTolerance
	}
	return t
}

// normalizeModel falls back to hog for anything that isn't a known detector.
func normalizeModel(model string) string {
	switch model {
	case "hog", "cnn":
		return model
	default:
		return "hog"
	}
}

func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	return &Config{
		Camera: CameraConfig{
			Index:       envIndex("CAMERA_INDEX", 0),
			FrameWidth:  envInt("CAMERA_FRAME_WIDTH", 640),
			FrameHeight: envInt("CAMERA_FRAME_HEIGHT", 480),
			FPS:         envInt("CAMERA_FPS", 30),
			SpoolDir:    envString("CAMERA_SPOOL_DIR", "frames"),
		},
		Recognition: RecognitionConfig{
			Tolerance:        clampTolerance(envFloat("RECOGNITION_TOLERANCE", constants.DefaultTolerance)),
			Model:            normalizeModel(os.Getenv("RECOGNITION_MODEL")),
			FrameSampling:    envInt("RECOGNITION_FRAME_SAMPLING", constants.DefaultFrameSampling),
			DisplayThreshold: envFloat("RECOGNITION_DISPLAY_THRESHOLD", constants.DefaultDisplayThreshold),
			EmbeddingDim:     envInt("RECOGNITION_EMBEDDING_DIM", constants.DefaultEmbeddingDim),
		},
		Encoder: EncoderConfig{
			URL:            envString("ENCODER_URL", "http://localhost:8100"),
			TimeoutSeconds: envInt("ENCODER_TIMEOUT_SECONDS", 30),
		},
		Database: DatabaseConfig{
			Driver:        envString("DATABASE_DRIVER", "sqlite"),
			SQLitePath:    envString("SQLITE_PATH", "attendance.db"),
			PostgresURL:   os.Getenv("DATABASE_URL"),
			MaxOpenConns:  envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  envInt("DATABASE_MAX_IDLE_CONNS", 5),
			HNSWIndexPath: os.Getenv("HNSW_INDEX_PATH"),
		},
		Roster: RosterConfig{
			MySQLDSN: os.Getenv("ROSTER_MYSQL_DSN"),
		},
		Paths: PathsConfig{
			ExportDir: envString("EXPORT_DIR", "exports"),
			LogDir:    envString("LOG_DIR", "logs"),
			PhotoDir:  envString("PHOTO_DIR", "photos"),
		},
		UI: UIConfig{
			Theme:        envString("UI_THEME", "dark"),
			WindowWidth:  envInt("UI_WINDOW_WIDTH", 1280),
			WindowHeight: envInt("UI_WINDOW_HEIGHT", 800),
		},
		Admin: AdminConfig{
			Username:     envString("ADMIN_USERNAME", "admin"),
			passwordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
		Models: models,
	}
}

// GetModelPreset returns the detector preset for a model name, falling back
// to the hog preset for unknown names.
func (c *Config) GetModelPreset(name string) ModelPreset {
	if preset, ok := c.Models.Models[name]; ok {
		return preset
	}
	return c.Models.Models["hog"]
}
