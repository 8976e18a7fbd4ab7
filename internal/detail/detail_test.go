package detail

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

const detailPage = `<html><body>
<ul class="content-review-paging">
  <li>123 Lê Lợi, Phường Bến Nghé, Quận 1</li>
  <li>MST: 0312345678</li>
</ul>
<ul><li class="phone-review-paging"><a href="tel:02838221234">028 3822 1234</a></li></ul>
<table class="table-info">
  <tr><td>Đại diện pháp luật:</td><td><strong>Nguyễn Văn A</strong></td></tr>
  <tr><td>Ngày thành lập:</td><td>2015-06-01 00:00:00</td></tr>
  <tr><td>Chỉ một ô</td></tr>
</table>
<div class="box-business-view">
  <h3 class="title-business-view">Ngành nghề kinh doanh</h3>
  <p>Bán buôn máy vi tính, thiết bị ngoại vi và phần mềm</p>
</div>
</body></html>`

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	e := NewExtractor(crawler.DefaultSelectors(), zap.NewNop())
	stub := crawler.EntityStub{Name: "CÔNG TY TNHH ALPHA", DetailURL: "https://infocom.vn/cong-ty/a"}

	rec, err := e.Extract(detailPage, stub.DetailURL, stub)
	require.NoError(t, err)
	require.Equal(t, "CÔNG TY TNHH ALPHA", rec.Name, "name comes from the stub")
	require.Equal(t, "123 Lê Lợi, Phường Bến Nghé, Quận 1", rec.Address)
	require.Equal(t, "0312345678", rec.Code)
	require.Equal(t, "028 3822 1234", rec.Phone)
	require.Equal(t, "Nguyễn Văn A", rec.Representative)
	require.Equal(t, "01/06/2015", rec.Established)
	require.Equal(t, "Bán buôn máy vi tính, thiết bị ngoại vi và phần mềm", rec.Industry)
}

func TestExtractor_MissingSectionsLeaveFieldsEmpty(t *testing.T) {
	t.Parallel()

	e := NewExtractor(crawler.DefaultSelectors(), zap.NewNop())
	stub := crawler.EntityStub{Name: "CÔNG TY B"}

	rec, err := e.Extract(`<html><body><p>sparse page</p></body></html>`, "https://infocom.vn/cong-ty/b", stub)
	require.NoError(t, err)
	require.Equal(t, "CÔNG TY B", rec.Name)
	require.Empty(t, rec.Address)
	require.Empty(t, rec.Code)
	require.Empty(t, rec.Phone)
	require.Empty(t, rec.Representative)
	require.Empty(t, rec.Established)
	require.Empty(t, rec.Industry)
}

func TestExtractor_IndustryNeedsTheTitledHeading(t *testing.T) {
	t.Parallel()

	e := NewExtractor(crawler.DefaultSelectors(), zap.NewNop())
	stub := crawler.EntityStub{Name: "CÔNG TY C"}

	// Container present, heading absent: the stray paragraph must not
	// be mistaken for the industry.
	page := `<html><body>
	<div class="box-business-view">
	  <p>Một đoạn văn không liên quan</p>
	</div>
	</body></html>`

	rec, err := e.Extract(page, "https://infocom.vn/cong-ty/c", stub)
	require.NoError(t, err)
	require.Empty(t, rec.Industry)
}

func TestNormalizeEstablished(t *testing.T) {
	t.Parallel()

	got, err := NormalizeEstablished("2015-06-01 00:00:00")
	require.NoError(t, err)
	require.Equal(t, "01/06/2015", got)

	got, err = NormalizeEstablished("01-06-2015")
	require.Error(t, err)
	require.Equal(t, "01-06-2015", got, "unparsable dates are kept verbatim")

	got, err = NormalizeEstablished("")
	require.NoError(t, err)
	require.Empty(t, got)
}
