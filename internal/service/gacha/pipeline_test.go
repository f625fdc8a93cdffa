package gacha

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kapu/genshin-gacha-api/internal/service/wiki"
	"github.com/kapu/genshin-gacha-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyPage = `<html><body>
<table class="wikitable"><tr><td>
  <table class="ys-qy-table">
    <tr><th class="ys-qy-title"><img alt="角色活动祈愿·甲"></th></tr>
    <tr><th>时间</th><td>05/01 ~ 05/21</td></tr>
    <tr><th>版本</th><td>5.8上半</td></tr>
    <tr><th>5星角色</th><td><a>甲</a></td></tr>
    <tr><th>4星角色</th><td><a>乙</a><a>丙</a><a>丁</a></td></tr>
  </table>
  <table class="ys-qy-table">
    <tr><th class="ys-qy-title">武器活动祈愿·乙</th></tr>
    <tr><th>时间</th><td>2025/04/01 ~ 2025/04/21</td></tr>
    <tr><th>版本</th><td>5.7下半</td></tr>
    <tr><th>5星武器</th><td><a>剑</a><a>弓</a></td></tr>
  </table>
  <table class="ys-qy-table"></table>
</td></tr></table>
</body></html>`

const archivePage = `<html><body>
<table class="wikitable">
  <tr><th colspan="2">集录祈愿·丙</th></tr>
  <tr><th>版本</th><td>5.8</td></tr>
  <tr><th>角色</th><td><a>旧甲</a><a>旧乙</a></td></tr>
  <tr><th>武器</th><td><a>旧剑</a></td></tr>
</table>
</body></html>`

type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	failures int
	calls    int
}

func (f *fakeFetcher) Fetch(ctx context.Context, src wiki.Source) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failures > 0 {
		f.failures--
		return nil, errors.NewFetchError("wiki request failed", src.Name, src.URL, fmt.Errorf("connection reset"))
	}
	page, ok := f.pages[src.Name]
	if !ok {
		return nil, errors.NewFetchError("wiki returned non-200 status", src.Name, src.URL, fmt.Errorf("status 404"))
	}
	return []byte(page), nil
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.delays = append(s.delays, d)
}

func newTestPipeline(f wiki.Fetcher, rec *sleepRecorder) *Pipeline {
	return NewPipeline(f, PipelineConfig{
		Sources:        wiki.DefaultSources("http://wiki.test/history", "http://wiki.test/archive"),
		MaxAttempts:    3,
		RetryDelay:     5 * time.Second,
		LatestVersions: 2,
		ParseWorkers:   2,
	}, nil).WithClock(fixedClock).WithSleep(rec.sleep)
}

func bothPages() map[string]string {
	return map[string]string{
		wiki.SourceHistory: historyPage,
		wiki.SourceArchive: archivePage,
	}
}

func TestPipelineRunBuildsResponse(t *testing.T) {
	sleeper := &sleepRecorder{}
	p := newTestPipeline(&fakeFetcher{pages: bothPages()}, sleeper)

	resp, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2025-06-01T12:00:00+08:00", resp.LastUpdated)
	assert.Equal(t, []string{"5.8", "5.7"}, resp.LatestVersions)
	assert.Equal(t, 3, resp.TotalPools)
	require.Len(t, resp.GachaData, 3)

	assert.Equal(t, []string{"角色活动祈愿·甲", "集录祈愿·丙", "武器活动祈愿·乙"}, names(resp.GachaData))

	first := resp.GachaData[0]
	assert.Equal(t, "character-pool", first.Kind.String())
	assert.Equal(t, "2025/05-01", first.StartTime)
	assert.Equal(t, "2025/05-21", first.EndTime)
	assert.Equal(t, []string{"乙", "丙", "丁"}, first.FourStarItems)

	archive := resp.GachaData[1]
	assert.Equal(t, "mixed-archive-pool", archive.Kind.String())
	assert.Equal(t, []string{"旧甲", "旧乙", "旧剑"}, archive.FiveStarItems)

	assert.Equal(t, "weapon-pool", resp.GachaData[2].Kind.String())
	assert.Empty(t, sleeper.delays)
}

func TestPipelineWithLatestOne(t *testing.T) {
	p := newTestPipeline(&fakeFetcher{pages: bothPages()}, &sleepRecorder{}).WithLatest(1)

	resp, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"5.8"}, resp.LatestVersions)
	assert.Equal(t, 2, resp.TotalPools)
}

func TestPipelineRetriesThenSucceeds(t *testing.T) {
	sleeper := &sleepRecorder{}
	fetcher := &fakeFetcher{pages: bothPages(), failures: 2}

	resp, err := newTestPipeline(fetcher, sleeper).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalPools)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, sleeper.delays)
	assert.Equal(t, 4, fetcher.calls)
}

func TestPipelineExhaustsAttempts(t *testing.T) {
	sleeper := &sleepRecorder{}
	fetcher := &fakeFetcher{pages: map[string]string{wiki.SourceHistory: historyPage}}

	resp, err := newTestPipeline(fetcher, sleeper).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, resp)

	var pipeErr *errors.PipelineError
	require.True(t, stderrors.As(err, &pipeErr))
	assert.Equal(t, 3, pipeErr.Attempts)
	assert.Equal(t, 500, errors.StatusCode(err, 0))
	assert.Contains(t, err.Error(), "unable to fetch gacha data")

	var fetchErr *errors.FetchError
	require.True(t, stderrors.As(err, &fetchErr))
	assert.Equal(t, wiki.SourceArchive, fetchErr.Source)

	assert.Len(t, sleeper.delays, 2, "no sleep after the final attempt")
	assert.Equal(t, 6, fetcher.calls)
}

func TestPipelineEmptyPagesAreStructureChange(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		wiki.SourceHistory: `<html><body><p>moved</p></body></html>`,
		wiki.SourceArchive: `<html><body></body></html>`,
	}}

	_, err := newTestPipeline(fetcher, &sleepRecorder{}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsStructureError(err))
}

func TestPipelineIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := newTestPipeline(&fakeFetcher{pages: bothPages()}, &sleepRecorder{}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalPools)
}

func TestPipelineZeroDelayStillRetries(t *testing.T) {
	sleeper := &sleepRecorder{}
	fetcher := &fakeFetcher{pages: bothPages(), failures: 1}

	p := NewPipeline(fetcher, PipelineConfig{
		Sources:     wiki.DefaultSources("http://h", "http://a"),
		MaxAttempts: 2,
	}, nil).WithClock(fixedClock).WithSleep(sleeper.sleep)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{0}, sleeper.delays)
}
