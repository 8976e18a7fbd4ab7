package sheets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnLetter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{7, "H"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, columnLetter(tc.col), "col %d", tc.col)
	}
}

func TestEscapeQueryValue(t *testing.T) {
	t.Parallel()

	require.Equal(t, `Thông tin doanh nghiệp Hà Nội`, escapeQueryValue("Thông tin doanh nghiệp Hà Nội"))
	require.Equal(t, `O\'Brien`, escapeQueryValue("O'Brien"))
}
