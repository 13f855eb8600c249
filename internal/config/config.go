package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Database
		Files
		Audit
		Export
		Reconcile
		Tasks
		Global
	}

	Database struct {
		Path string
	}

	// Files configures the line-oriented flat-file store. The three record
	// files live inside Dir.
	Files struct {
		Dir string
	}

	Audit struct {
		Dir     string
		LogFile string // append-only action log
	}

	Export struct {
		Dir string // destination for CSV exports
	}

	Reconcile struct {
		Enabled  bool
		Schedule string // cron format: "*/30 * * * *" = every 30 minutes
	}

	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}

	Global struct {
		ShutdownTimeoutInSeconds int
		StoreWriteTimeout        time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("database_path", "./library.db")
	v.SetDefault("files_dir", ".")
	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_log_file", "./library_log.txt")
	v.SetDefault("export_dir", ".")
	v.SetDefault("reconcile_enabled", false)
	v.SetDefault("reconcile_schedule", "*/30 * * * *")
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("store_write_timeout", "5s")

	return &Config{
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Files: Files{
			Dir: v.GetString("FILES_DIR"),
		},
		Audit: Audit{
			Dir:     v.GetString("AUDIT_DIR"),
			LogFile: v.GetString("AUDIT_LOG_FILE"),
		},
		Export: Export{
			Dir: v.GetString("EXPORT_DIR"),
		},
		Reconcile: Reconcile{
			Enabled:  v.GetBool("RECONCILE_ENABLED"),
			Schedule: v.GetString("RECONCILE_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			StoreWriteTimeout:        v.GetDuration("STORE_WRITE_TIMEOUT"),
		},
	}
}
