package ui

// Config contains window/audio settings for the ebiten host shell.
type Config struct {
	Title           string // window title
	Scale           int    // integer upscaling factor
	AudioStereo     bool   // if true, output true stereo; if false, fold to mono
	AudioBufferMs   int    // initial desired buffer in ms (approx)
	AudioLowLatency bool   // hard-cap buffering for minimal latency
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbcore"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.AudioBufferMs <= 0 {
		c.AudioBufferMs = 60
	}
}
