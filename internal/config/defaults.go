package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			DBPath:   "~/.chatvault/chatvault.db",
			LogLevel: "info",
		},
		Browser: BrowserConfig{
			ProfileDir: "~/.chatvault/chrome-profile",
			Headless:   false,
		},
		Capture: CaptureConfig{
			DashboardURL:    "https://dashboard.clientbook.com/",
			DefaultCount:    5,
			SearchThreshold: 200,
			ScrollSettleMs:  1500,
			RenderDelayMs:   3000,
			LoginPollMs:     1000,
			LandmarkWaitMs:  2000,
			KeepAwake:       true,
		},
		Archive: ArchiveConfig{
			TimeoutSeconds: 30,
		},
		Viewer: ViewerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
	}
}
