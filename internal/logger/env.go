package logger

import "os"

func envLogLevel() string {
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		return v
	}
	return ""
}
