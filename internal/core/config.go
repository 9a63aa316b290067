package core

import "time"

type PersonaConfig interface {
	GetPersonaPath() string
}

type RetentionConfig interface {
	GetLoadWindow() time.Duration
	GetRetainWindow() time.Duration
}

type ProviderConfig interface {
	GetModel() string
	GetProvider() string
	GetAPIKey() string
	GetBaseURL() string
	GetTimeout() time.Duration
}
