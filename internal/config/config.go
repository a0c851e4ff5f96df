package config

import "time"

const (
	// Pairing
	PollInterval    = 3 * time.Second
	BotFallbackWait = 10 * time.Second

	// Bot persona
	BotReplyDelayMin = 1500 * time.Millisecond
	BotReplyDelayMax = 3500 * time.Millisecond
	BotGoodbyeLinger = 2 * time.Second
	BotStaminaMin    = 3
	BotStaminaMax    = 5

	// Session snapshot
	SessionDirName  = "blinddate"
	SessionFileName = "session.json"

	// WebSocket gateway
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 512
)
