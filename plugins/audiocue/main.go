// Package main provides an audio cue plugin.
// It plays a sound file matching the requested cue using the platform's
// command-line audio player.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Request represents the input from the plugin executor.
type Request struct {
	Cue    string          `json:"cue"`
	Phase  string          `json:"phase,omitempty"`
	Text   string          `json:"text,omitempty"`
	Event  string          `json:"event,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// AudioConfig defines the plugin's configuration options.
type AudioConfig struct {
	SoundDir string `json:"sound_dir"`
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Cue == "" {
		writeErrorResponse("cue is required")
		return
	}

	var cfg AudioConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}
	if cfg.SoundDir == "" {
		cfg.SoundDir = soundDirDefault()
	}

	soundFile := filepath.Join(cfg.SoundDir, req.Cue+".wav")
	if _, err := os.Stat(soundFile); err != nil {
		writeErrorResponse(fmt.Sprintf("sound file not found: %s", soundFile))
		return
	}

	if err := playSound(soundFile); err != nil {
		writeErrorResponse(fmt.Sprintf("playback failed: %v", err))
		return
	}

	writeSuccessResponse()
}

// soundDirDefault returns the sounds directory next to the plugin executable.
func soundDirDefault() string {
	exe, err := os.Executable()
	if err != nil {
		return "sounds"
	}
	return filepath.Join(filepath.Dir(exe), "sounds")
}

// playSound plays a sound file with the platform's audio player.
func playSound(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("afplay", path)
	case "windows":
		cmd = exec.Command("powershell", "-c",
			fmt.Sprintf(`(New-Object Media.SoundPlayer "%s").PlaySync()`, path))
	default:
		cmd = exec.Command("aplay", "-q", path)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
