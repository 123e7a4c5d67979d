package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		env   string
		level string
		want  logrus.Level
	}{
		{env: envLocal, want: logrus.DebugLevel},
		{env: envDev, want: logrus.InfoLevel},
		{env: envProd, want: logrus.WarnLevel},
		{env: "unknown", want: logrus.WarnLevel},
		{env: envProd, level: "debug", want: logrus.DebugLevel},
		{env: envDev, level: "loud", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			log := setupLogger(tt.env, tt.level)
			assert.Equal(t, tt.want, log.Logger.GetLevel())
		})
	}
}

func TestRun_RejectsMissingBackends(t *testing.T) {
	t.Setenv("WEBSERVICE_URL", "")
	t.Setenv("FTP_SERVER_URL", "")
	t.Setenv("APP_ENV", "prod")

	rootCmd.SetArgs([]string{"--addr", "127.0.0.1:0"})
	err := rootCmd.Execute()

	assert.ErrorContains(t, err, "WEBSERVICE_URL is not set")
}
