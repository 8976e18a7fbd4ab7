package discovery

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

type stubFetcher struct {
	body []byte
	err  error
	got  crawler.FetchRequest
}

func (f *stubFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	f.got = req
	if f.err != nil {
		return crawler.FetchResponse{}, f.err
	}
	return crawler.FetchResponse{URL: req.URL, StatusCode: http.StatusOK, Body: f.body}, nil
}

const regionPage = `<html><body>
<ul class="list-districts-wards-paging">
  <li><a href="/ho-chi-minh/quan-1">Quận 1</a></li>
  <li><a href="/ho-chi-minh/quan-3">Quận 3</a></li>
  <li><a href="/ho-chi-minh/quan-1">Quận 1 (lặp)</a></li>
  <li><a href="">Trống</a></li>
</ul>
</body></html>`

func TestDiscoverer_Districts(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{body: []byte(regionPage)}
	d := NewDiscoverer(f, "https://infocom.vn/", crawler.DefaultSelectors(), zap.NewNop())

	region := d.Resolve("Hồ Chí Minh")
	require.Equal(t, "ho-chi-minh", region.Segment)

	districts, err := d.Districts(context.Background(), "job-1", region)
	require.NoError(t, err)
	require.Equal(t, "https://infocom.vn/ho-chi-minh", f.got.URL)

	require.Len(t, districts, 2, "duplicate and empty hrefs are dropped")
	require.Equal(t, "Quận 1", districts[0].Name)
	require.Equal(t, "https://infocom.vn/ho-chi-minh/quan-1", districts[0].URL)
	require.Equal(t, "https://infocom.vn/ho-chi-minh/quan-3", districts[1].URL)
}

func TestDiscoverer_MissingContainerIsNotAnError(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{body: []byte(`<html><body><p>nothing here</p></body></html>`)}
	d := NewDiscoverer(f, "https://infocom.vn/", crawler.DefaultSelectors(), zap.NewNop())

	districts, err := d.Districts(context.Background(), "job-1", d.Resolve("Hà Nội"))
	require.NoError(t, err)
	require.Empty(t, districts)
}

func TestDiscoverer_FetchErrorPropagates(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{err: &crawler.FetchError{URL: "x", StatusCode: http.StatusServiceUnavailable}}
	d := NewDiscoverer(f, "https://infocom.vn/", crawler.DefaultSelectors(), zap.NewNop())

	_, err := d.Districts(context.Background(), "job-1", d.Resolve("Đà Nẵng"))
	require.Error(t, err)
}
