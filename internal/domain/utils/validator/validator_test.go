package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
	"github.com/stretchr/testify/assert"
)

func TestDesignName(t *testing.T) {
	assert.True(t, DesignName("Cafe menu"))
	assert.False(t, DesignName("   "))
	assert.False(t, DesignName(strings.Repeat("я", MaxDesignNameLength+1)))
	assert.True(t, DesignName(strings.Repeat("я", MaxDesignNameLength)))
}

func TestConfigDefaultsAreValid(t *testing.T) {
	assert.NoError(t, Config(entity.DefaultConfig))
	assert.NoError(t, Config(entity.QRConfig{}.Normalize()))
}

func TestConfigRejects(t *testing.T) {
	cases := map[string]func(c *entity.QRConfig){
		"dot style":   func(c *entity.QRConfig) { c.DotStyle = "stars" },
		"eye frame":   func(c *entity.QRConfig) { c.EyeFrameStyle = "circle" },
		"eye dot":     func(c *entity.QRConfig) { c.EyeDotStyle = "rounded" },
		"level":       func(c *entity.QRConfig) { c.ErrorCorrection = "X" },
		"color":       func(c *entity.QRConfig) { c.DotColor = "red" },
		"version":     func(c *entity.QRConfig) { c.Version = 41 },
		"logo size":   func(c *entity.QRConfig) { c.LogoSize = 0.9 },
		"logo margin": func(c *entity.QRConfig) { c.LogoMargin = 100 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := entity.DefaultConfig
			mutate(&cfg)
			err := Config(cfg)
			assert.True(t, errors.Is(err, errorz.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestConfigLevelIsCanonical(t *testing.T) {
	cfg := entity.DefaultConfig
	cfg.ErrorCorrection = "h"
	assert.ErrorIs(t, Config(cfg), errorz.ErrInvalidConfig)

	cfg = cfg.Normalize()
	assert.Equal(t, qr.LevelH, cfg.ErrorCorrection)
	assert.NoError(t, Config(cfg))

	cfg.ErrorCorrection = " q "
	assert.Equal(t, qr.LevelQ, cfg.Normalize().ErrorCorrection)
}
