package assess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWeights(t *testing.T) {
	require.NoError(t, ValidateWeights())
}

func TestParseDepth(t *testing.T) {
	tests := []struct {
		in      string
		want    Depth
		wantErr bool
	}{
		{"basic", DepthBasic, false},
		{"standard", DepthStandard, false},
		{"comprehensive", DepthComprehensive, false},
		{"", DepthStandard, false},
		{"deep", "", true},
		{"Basic", "", true},
	}
	for _, tt := range tests {
		t.Run("in="+tt.in, func(t *testing.T) {
			got, err := ParseDepth(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDepthWeightsShiftTowardBrandAndConsumer(t *testing.T) {
	assert.Greater(t, DepthWeights[DepthBasic][SourceMaterial], DepthWeights[DepthStandard][SourceMaterial])
	assert.Greater(t, DepthWeights[DepthStandard][SourceMaterial], DepthWeights[DepthComprehensive][SourceMaterial])
	assert.Less(t, DepthWeights[DepthBasic][SourceConsumer], DepthWeights[DepthComprehensive][SourceConsumer])
}
