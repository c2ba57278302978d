package handler

import (
	"go-recruit-auth/config"
	"go-recruit-auth/logger"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	logger.Init()

	config.AppConfig.JWT.SecretKey = "test-signing-secret-do-not-use-in-prod"
	config.ApplyDefaults()

	os.Exit(m.Run())
}
