package models

import (
	"path"

	"github.com/kardianos/osext"
)

// AppConfig is the application's main configuration structure
type AppConfig struct {
	// The directory where Mitbringsel stores its database - defaults to the /data
	// subdirectory of the folder, the Mitbringsel executable resides in
	DataDir string `json:"dataDir"`
	// The directory the client application is served from - defaults to the /ui
	// subdirectory beside the executable
	UIDir string `json:"uiDir"`
	// The IP address to listen at - including the port number
	ListenAddress string `json:"listenAddress"`
	// The origins browsers may call the API from - defaults to allowing all of them
	// since the client may be served from a dev server on another port
	AllowedOrigins []string `json:"allowedOrigins"`
}

// GetDefaultConfig returns the default configuration values for the application
func GetDefaultConfig() (*AppConfig, error) {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		return nil, err
	}
	return &AppConfig{
		DataDir:        path.Join(execDir, "data"),
		UIDir:          path.Join(execDir, "ui"),
		ListenAddress:  ":3000",
		AllowedOrigins: []string{"*"},
	}, nil
}
