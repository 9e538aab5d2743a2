package parser

import (
	"testing"

	"github.com/address-completer/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoiMatcher_Score(t *testing.T) {
	pm := NewPoiMatcher(0.6, 0.4)

	testCases := []struct {
		name      string
		candidate models.PoiCandidate
		address   string
		expected  int
	}{
		{
			name: "All_Evidence",
			candidate: models.PoiCandidate{
				Name:         "中关村大厦",
				Address:      "中关村大街27号",
				Adname:       "海淀区",
				Type:         "商务住宅;楼宇;商务写字楼",
				BusinessArea: "中关村",
				Children:     []models.PoiCandidate{{Name: "中关村大厦A座"}, {Name: "停车场"}},
			},
			address:  "北京市海淀区中关村大街27号中关村大厦A座",
			expected: 5 + 3 + 2 + 1 + 2,
		},
		{
			name:      "Exact_Name",
			candidate: models.PoiCandidate{Name: "国家图书馆"},
			address:   "国家图书馆",
			expected:  5 + 3,
		},
		{
			name:      "Address_Contains_Input",
			candidate: models.PoiCandidate{Name: "银泰百货", Address: "延安路98号"},
			address:   "延安路",
			expected:  2,
		},
		{
			name:      "Type_Tag_Counted_Once",
			candidate: models.PoiCandidate{Name: "X", Type: "餐饮服务;快餐厅;餐饮服务"},
			address:   "餐饮服务 快餐厅",
			expected:  1,
		},
		{
			name:      "Alias",
			candidate: models.PoiCandidate{Name: "北京首都国际机场", Alias: "首都机场"},
			address:   "首都机场T3",
			expected:  1,
		},
		{
			name:      "Empty_Fields_Never_Match",
			candidate: models.PoiCandidate{},
			address:   "文三路90号",
			expected:  0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, pm.Score(tc.candidate, tc.address))
		})
	}
}

func TestPoiMatcher_BestMatch(t *testing.T) {
	pm := NewPoiMatcher(0.6, 0.4)

	t.Run("Highest_Score_Wins", func(t *testing.T) {
		candidates := []models.PoiCandidate{
			{Name: "星巴克"},
			{Name: "星巴克", Adname: "西湖区"},
		}
		best, score, ok := pm.BestMatch(candidates, "西湖区星巴克")
		require.True(t, ok)
		assert.Equal(t, 7, score)
		assert.Same(t, &candidates[1], best)
	})

	t.Run("Tie_Goes_To_First", func(t *testing.T) {
		candidates := []models.PoiCandidate{
			{Name: "星巴克", Address: "文三路1号"},
			{Name: "星巴克", Address: "文三路2号"},
		}
		best, score, ok := pm.BestMatch(candidates, "星巴克咖啡")
		require.True(t, ok)
		assert.Equal(t, 5, score)
		assert.Same(t, &candidates[0], best)
	})

	t.Run("All_Zero_Returns_First", func(t *testing.T) {
		candidates := []models.PoiCandidate{{Name: "甲"}, {Name: "乙"}}
		best, score, ok := pm.BestMatch(candidates, "丙")
		require.True(t, ok)
		assert.Equal(t, 0, score)
		assert.Equal(t, "甲", best.Name)
	})

	t.Run("Empty_List", func(t *testing.T) {
		best, _, ok := pm.BestMatch(nil, "星巴克")
		assert.False(t, ok)
		assert.Nil(t, best)
	})
}

func TestPoiMatcher_Similarity(t *testing.T) {
	pm := NewPoiMatcher(0.6, 0.4)

	assert.InDelta(t, 1.0, pm.Similarity("中关村大厦", "中关村大厦"), 1e-9)
	assert.Equal(t, 0.0, pm.Similarity("", "中关村大厦"))

	partial := pm.Similarity("中关村大厦", "中关村大厦A座")
	assert.Greater(t, partial, 0.5)
	assert.Less(t, partial, 1.0)
}

func TestNewPoiMatcher_InvalidWeights(t *testing.T) {
	pm := NewPoiMatcher(0, 0)
	assert.InDelta(t, 0.6, pm.jwWeight, 1e-9)
	assert.InDelta(t, 0.4, pm.levWeight, 1e-9)

	pm = NewPoiMatcher(3, 1)
	assert.InDelta(t, 0.75, pm.jwWeight, 1e-9)
	assert.InDelta(t, 0.25, pm.levWeight, 1e-9)
}
