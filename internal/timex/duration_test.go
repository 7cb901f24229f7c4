package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	var cfg struct {
		Access  Duration `json:"access"`
		Refresh Duration `json:"refresh"`
	}
	err := json.Unmarshal([]byte(`{"access":"15m","refresh":2000000000}`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.Access.Duration)
	assert.Equal(t, 2*time.Second, cfg.Refresh.Duration)
}

func TestDuration_UnmarshalJSON_Invalid(t *testing.T) {
	var d Duration
	require.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	require.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 720 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, `"720h0m0s"`, string(b))
}
