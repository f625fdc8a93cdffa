package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/kapu/genshin-gacha-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	resp *domain.GachaResponse
	err  error
}

func (s stubRunner) Run(context.Context) (*domain.GachaResponse, error) {
	return s.resp, s.err
}

func TestExportWritesIndentedSuccess(t *testing.T) {
	rec := domain.NewBannerRecord("集录祈愿")
	rec.VersionKey = "月之一"
	resp := &domain.GachaResponse{
		LastUpdated:    "2025-06-01T20:00:00+08:00",
		TotalPools:     1,
		LatestVersions: []string{"月之一"},
		GachaData:      []*domain.BannerRecord{rec},
	}

	path := filepath.Join(t.TempDir(), "nested", "dir", "gacha.json")
	require.NoError(t, NewExporter(stubRunner{resp: resp}, nil).Export(context.Background(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"total_pools\": 1,")
	assert.Contains(t, string(data), "集录祈愿")

	var got domain.GachaResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []string{"月之一"}, got.LatestVersions)
	assert.Equal(t, domain.PoolKindMixedArchive, got.GachaData[0].Kind)
}

func TestExportWritesErrorBodyAndReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gacha.json")
	err := NewExporter(stubRunner{err: fmt.Errorf("wiki down")}, nil).Export(context.Background(), path)
	require.Error(t, err)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.JSONEq(t, `{"error":"unable to fetch gacha data: wiki down"}`, string(data))
}
