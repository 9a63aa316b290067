package config

import "os"

func IsDebug() bool {
	return os.Getenv("BOT_DEBUG") == "1"
}
