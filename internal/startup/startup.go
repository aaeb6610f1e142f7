package startup

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"thumbgrid/internal/logging"
	"thumbgrid/internal/thumb"
	"thumbgrid/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	MediaDir    string
	DatabaseDir string
	Port        string

	CacheCapacity int
	DecodeWorkers int
	PageSize      int

	// ThumbBoxW and ThumbBoxH are the default bounding box for thumbnails
	// when a request does not specify one.
	ThumbBoxW int
	ThumbBoxH int

	MetricsEnabled  bool
	LogHealthChecks bool
	IndexEnabled    bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	mediaDir := getEnv("MEDIA_DIR", "/media")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	port := getEnv("PORT", "8080")
	cacheCapacity := getEnvInt("CACHE_CAPACITY", thumb.DefaultCacheCapacity)
	pageSize := getEnvInt("PAGE_SIZE", 20)
	thumbBoxW := getEnvInt("THUMB_BOX_WIDTH", 520)
	thumbBoxH := getEnvInt("THUMB_BOX_HEIGHT", 400)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	indexEnabled := getEnvBool("INDEX_ENABLED", true)
	decodeWorkers := workers.ForDecode()

	logging.Info("  MEDIA_DIR:         %s", mediaDir)
	logging.Info("  DATABASE_DIR:      %s", databaseDir)
	logging.Info("  PORT:              %s", port)
	logging.Info("  CACHE_CAPACITY:    %d", cacheCapacity)
	logging.Info("  DECODE_WORKERS:    %d", decodeWorkers)
	logging.Info("  PAGE_SIZE:         %d", pageSize)
	logging.Info("  THUMB_BOX:         %dx%d", thumbBoxW, thumbBoxH)
	logging.Info("  METRICS_ENABLED:   %v", metricsEnabled)
	logging.Info("  INDEX_ENABLED:     %v", indexEnabled)
	logging.Info("  LOG_HEALTH_CHECKS: %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	if info, err := os.Stat(mediaDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("MEDIA_DIR %q is not an accessible directory", mediaDir)
	}

	if indexEnabled {
		if info, err := os.Stat(databaseDir); err != nil || !info.IsDir() {
			logging.Warn("DATABASE_DIR %q not accessible, capture time index disabled", databaseDir)
			indexEnabled = false
		}
	}

	return &Config{
		MediaDir:        mediaDir,
		DatabaseDir:     databaseDir,
		Port:            port,
		CacheCapacity:   cacheCapacity,
		DecodeWorkers:   decodeWorkers,
		PageSize:        pageSize,
		ThumbBoxW:       thumbBoxW,
		ThumbBoxH:       thumbBoxH,
		MetricsEnabled:  metricsEnabled,
		LogHealthChecks: logHealthChecks,
		IndexEnabled:    indexEnabled,
	}, nil
}

func printBanner() {
	logging.Printf("============================================================")
	logging.Printf("ThumbGrid %s (commit %s)", Version, Commit)
	logging.Printf("============================================================")
}

func logSystemInfo() {
	logging.Info("Go version: %s, OS: %s, Arch: %s, CPUs: %d",
		GoVersion, runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
}

// LogHTTPRoutes walks the router and logs every registered route
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP ROUTES")
	logging.Info("------------------------------------------------------------")

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil //nolint:nilerr // routes without a template are skipped
		}
		methods, err := route.GetMethods()
		if err != nil {
			logging.Info("  *      %s", path)
			return nil //nolint:nilerr // method-less routes are still logged
		}
		for _, m := range methods {
			logging.Info("  %-6s %s", m, path)
		}
		return nil
	})
	if err != nil {
		logging.Warn("Failed to walk routes: %v", err)
	}
}

// LogServerStarted logs the final startup line with total boot time
func LogServerStarted(port string, elapsed time.Duration) {
	logging.Info("------------------------------------------------------------")
	logging.Info("Listening on :%s (started in %s)", port, elapsed.Round(time.Millisecond))
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs the beginning of graceful shutdown
func LogShutdownInitiated(signal string) {
	logging.Info("Received %s, shutting down gracefully", signal)
}

// LogShutdownComplete logs the end of graceful shutdown
func LogShutdownComplete() {
	logging.Info("Shutdown complete")
}

// LogFatal logs a fatal startup error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean for %s: %q, using %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid value for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return parsed
}
