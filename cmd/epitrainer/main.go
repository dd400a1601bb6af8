package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/medsim/epitrainer/internal/app"
	"github.com/medsim/epitrainer/internal/server"
	"github.com/medsim/epitrainer/internal/store"
	"github.com/medsim/epitrainer/internal/training"
	"github.com/medsim/epitrainer/internal/tray"
)

// config is loaded from the environment, optionally seeded by a .env file.
type config struct {
	HTTPAddr     string  `env:"EPITRAINER_ADDR" envDefault:":8080"`
	CameraID     int     `env:"EPITRAINER_CAMERA_ID" envDefault:"0"`
	DataDir      string  `env:"EPITRAINER_DATA_DIR"`
	PluginDir    string  `env:"EPITRAINER_PLUGIN_DIR"`
	UserID       string  `env:"EPITRAINER_USER_ID" envDefault:"trainee"`
	MotionThresh float64 `env:"EPITRAINER_MOTION_THRESHOLD" envDefault:"1.0"`
	NoTray       bool    `env:"EPITRAINER_NO_TRAY" envDefault:"false"`
}

func main() {
	fmt.Println("EpiTrainer - Epidural Catheter Removal Trainer")

	// .env is optional; the environment wins either way.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}

	if cfg.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		cfg.DataDir = filepath.Join(homeDir, ".epitrainer")
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}

	dbPath := filepath.Join(cfg.DataDir, "epitrainer.db")
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	application := app.New(app.Config{
		Store:        st,
		PluginDir:    cfg.PluginDir,
		CameraID:     cfg.CameraID,
		MotionThresh: cfg.MotionThresh,
		UserID:       cfg.UserID,
	})
	if err := application.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	if err := application.Start(); err != nil {
		log.Printf("Camera pipeline unavailable: %v", err)
	}
	defer application.Stop()

	webDir := findWebDir(cfg.DataDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Store:      st,
		Camera:     application.Camera(),
		Controller: application.Controller(),
		Trainer:    application,
	})

	if cfg.NoTray {
		fmt.Printf("Starting server on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(cfg.HTTPAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(cfg.HTTPAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	tr := tray.New()
	tr.OnStart(func() {
		application.StartSession()
	})
	tr.OnAbort(func() {
		application.AbortSession()
	})
	tr.OnDashboard(func() {
		openBrowser(dashboardURL(cfg.HTTPAddr))
	})
	tr.OnQuit(func() {
		application.AbortSession()
	})
	application.SetEffectListener(func(effects []training.Effect) {
		for _, e := range effects {
			switch e.Kind {
			case training.EffectPhaseEntered:
				tr.SetPhase(e.Phase.String())
			case training.EffectSessionComplete:
				tr.SetPhase("complete")
				tr.SessionDone()
			}
		}
	})

	// Blocks until quit is selected from the menu.
	tr.Run()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func dashboardURL(addr string) string {
	if addr != "" && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
