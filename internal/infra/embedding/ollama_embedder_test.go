package embedding

import (
	"context"
	"testing"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:11434", BaseURL(config.EmbedderConfig{Host: "http://localhost", Port: 11434}))
	assert.Equal(t, "http://ollama.internal", BaseURL(config.EmbedderConfig{Host: "http://ollama.internal"}))
}

func TestToFloat32(t *testing.T) {
	got := toFloat32([][]float64{{0.5, -1}, {}})
	assert.Equal(t, [][]float32{{0.5, -1}, {}}, got)
}

func TestInitEmbedderRequiresModel(t *testing.T) {
	_, err := InitEmbedder(context.Background(), config.EmbedderConfig{Host: "http://localhost", Port: 11434})
	assert.Error(t, err)
}
