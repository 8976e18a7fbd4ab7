package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
	"github.com/ly2306/bizdir-crawler/internal/tabular/memory"
)

func TestTableName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"quận 10", "Quận 10"},
		{"Quận 10", "Quận 10"},
		{"HUYỆN CỦ CHI", "Huyện củ chi"},
		{"  thành phố thủ đức ", "Thành phố thủ đức"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, TableName(tc.in), "input %q", tc.in)
	}
}

func TestDistrictSink_AppendAssignsContiguousSeq(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	groupID, err := store.FindOrCreateGroup(ctx, "Thông tin doanh nghiệp Hồ Chí Minh")
	require.NoError(t, err)

	s, err := Open(ctx, store, groupID, "quận 1", false, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "Quận 1", s.Table())

	a := crawler.EntityRecord{Name: "CÔNG TY A"}
	b := crawler.EntityRecord{Name: "CÔNG TY B"}

	written, err := s.Append(ctx, &a)
	require.NoError(t, err)
	require.True(t, written)
	require.Equal(t, 1, a.Seq)

	written, err = s.Append(ctx, &b)
	require.NoError(t, err)
	require.True(t, written)
	require.Equal(t, 2, b.Seq)

	rows := store.Rows(groupID, "Quận 1")
	require.Len(t, rows, 3, "header plus two records")
}

func TestDistrictSink_SkipsDuplicatesFromSnapshotAndRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	groupID, err := store.FindOrCreateGroup(ctx, "g")
	require.NoError(t, err)

	// Pre-existing row from an earlier run.
	require.NoError(t, store.EnsureTable(ctx, groupID, "Quận 1", crawler.HeaderRow))
	require.NoError(t, store.AppendRow(ctx, groupID, "Quận 1", []any{1, "CÔNG TY CŨ", "", "", "", "", "", ""}))

	s, err := Open(ctx, store, groupID, "Quận 1", false, zap.NewNop())
	require.NoError(t, err)

	written, err := s.Append(ctx, &crawler.EntityRecord{Name: "CÔNG TY CŨ"})
	require.NoError(t, err)
	require.False(t, written, "snapshot name is a duplicate")

	fresh := crawler.EntityRecord{Name: "CÔNG TY MỚI"}
	written, err = s.Append(ctx, &fresh)
	require.NoError(t, err)
	require.True(t, written)
	require.Equal(t, 2, fresh.Seq, "seq continues after existing rows")

	written, err = s.Append(ctx, &crawler.EntityRecord{Name: "CÔNG TY MỚI"})
	require.NoError(t, err)
	require.False(t, written, "same-run name is a duplicate")
}

func TestDistrictSink_StrictModeSeesConcurrentWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	groupID, err := store.FindOrCreateGroup(ctx, "g")
	require.NoError(t, err)

	s, err := Open(ctx, store, groupID, "Quận 3", true, zap.NewNop())
	require.NoError(t, err)

	// Another writer appends after the snapshot was taken.
	require.NoError(t, store.AppendRow(ctx, groupID, "Quận 3", []any{1, "CÔNG TY X", "", "", "", "", "", ""}))

	written, err := s.Append(ctx, &crawler.EntityRecord{Name: "CÔNG TY X"})
	require.NoError(t, err)
	require.False(t, written, "strict mode re-checks the live column")

	rec := crawler.EntityRecord{Name: "CÔNG TY Y"}
	written, err = s.Append(ctx, &rec)
	require.NoError(t, err)
	require.True(t, written)
	require.Equal(t, 2, rec.Seq, "seq accounts for the concurrent row")
}
