package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quill-ai/quill/config"
)

func TestMillis(t *testing.T) {
	// 与延迟直方图一致的毫秒换算，保留亚毫秒精度
	assert.Equal(t, 1.5, millis(1500*time.Microsecond))
	assert.Equal(t, 250.0, millis(250*time.Millisecond))
	assert.Equal(t, 0.0, millis(0))
}

func TestTokenizeProbe(t *testing.T) {
	cfg := config.DefaultConfig()
	rate := tokenizeProbe(cfg)
	assert.Greater(t, rate, 0.0)
}
