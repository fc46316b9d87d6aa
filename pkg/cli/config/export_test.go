package config

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(jwtSecret, noAuthUID string, noAuth bool) *Auth {
	return &Auth{
		jwtSecret: jwtSecret,
		noAuthUID: noAuthUID,
		noAuth:    noAuth,
	}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, signingSecret string) *Slack {
	return &Slack{
		botToken:      botToken,
		signingSecret: signingSecret,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewAppConfigForTest points the configuration at path
func NewAppConfigForTest(path string) *AppConfig {
	return &AppConfig{path: path}
}

var ReplaceAttr = replaceAttr
