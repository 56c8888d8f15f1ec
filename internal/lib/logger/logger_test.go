package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-manager/internal/config"
)

func TestNew_FormatAndLevelByEnv(t *testing.T) {
	tests := []struct {
		env       string
		wantJSON  bool
		wantDebug bool
	}{
		{env: config.EnvLocal, wantJSON: false, wantDebug: true},
		{env: config.EnvDev, wantJSON: true, wantDebug: true},
		{env: config.EnvProd, wantJSON: true, wantDebug: false},
		{env: "staging", wantJSON: false, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := newWithWriter(tt.env, &buf)

			log.Debug("debug line")
			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), "debug line"))

			buf.Reset()
			log.Info("info line", "k", "v")
			line := strings.TrimSpace(buf.String())
			require.NotEmpty(t, line)

			var decoded map[string]any
			isJSON := json.Unmarshal([]byte(line), &decoded) == nil
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}
