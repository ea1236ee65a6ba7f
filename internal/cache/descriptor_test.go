package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescriptorKey(t *testing.T) {
	level := 2

	cases := map[string]struct {
		desc Descriptor
		want string
	}{
		"children query": {
			desc: Descriptor{RootID: 1},
			want: "ldata:1:all:default",
		},
		"level query": {
			desc: Descriptor{RootID: 1, Level: &level},
			want: "ldata:1:2:default",
		},
		"with language": {
			desc: Descriptor{RootID: 42, Level: &level, Language: "fr"},
			want: "ldata:42:2:fr",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.desc.Key())
		})
	}
}

func TestDescriptorKeyLevelZeroDistinctFromAbsent(t *testing.T) {
	zero := 0
	withLevel := Descriptor{RootID: 1, Level: &zero}
	withoutLevel := Descriptor{RootID: 1}

	require.NotEqual(t, withLevel.Key(), withoutLevel.Key(),
		"level 0 and no level must not collide")
}
