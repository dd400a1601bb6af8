// Package plugin provides discovery and execution of cue plugins:
// external programs that play narration audio, patient sound effects and
// quiz prompts for the training procedure.
package plugin

import "encoding/json"

// Manifest describes a cue plugin's metadata and the cues it can deliver.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Cues         []string        `json:"cues"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request is sent to a plugin on stdin as a single JSON document.
type Request struct {
	Cue    string          `json:"cue"`
	Phase  string          `json:"phase,omitempty"`
	Text   string          `json:"text,omitempty"`
	Event  string          `json:"event,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Response is read from the plugin's stdout as a single JSON document.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered cue plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin declares the given cue.
func (p *Plugin) Handles(cue string) bool {
	for _, c := range p.Manifest.Cues {
		if c == cue {
			return true
		}
	}
	return false
}
