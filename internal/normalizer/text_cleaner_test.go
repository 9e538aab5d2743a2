package normalizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/address-completer/app/models"
	"github.com/stretchr/testify/assert"
)

type fakeDistricts struct {
	known map[string]models.DistrictInfo
	calls []string
}

func (f *fakeDistricts) DistrictByName(_ context.Context, name string) (models.DistrictInfo, error) {
	f.calls = append(f.calls, name)
	if info, ok := f.known[name]; ok {
		return info, nil
	}
	return models.DistrictInfo{}, errors.New("not found")
}

func TestTextCleaner_Normalize(t *testing.T) {
	cleaner := NewTextCleaner(nil, nil)

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Municipality_Repeated", input: "北京北京市海淀区", expected: "北京市海淀区"},
		{name: "Municipality_BothWithSuffix", input: "上海市上海市浦东新区", expected: "上海市浦东新区"},
		{name: "Suffix_Repeated", input: "北京市市海淀区区中关村", expected: "北京市海淀区中关村"},
		{name: "Road_Repeated", input: "中山路中山路100号", expected: "中山路100号"},
		{name: "Road_RepeatedThrice", input: "长安街长安街长安街1号", expected: "长安街1号"},
		{name: "Special_Whitespace", input: "海淀区\t\n　中关村", expected: "海淀区中关村"},
		{name: "Collapse_Spaces", input: "  望京SOHO   塔1  ", expected: "望京SOHO 塔1"},
		{name: "Fullwidth_Digits", input: "３号楼２单元", expected: "3号楼2单元"},
		{name: "Token_Dedupe", input: "望京SOHO 望京SOHO 塔1", expected: "望京SOHO 塔1"},
		{name: "Admin_Suffix_Join", input: "浙江省 杭州市 西湖区 文三路", expected: "浙江省杭州市西湖区文三路"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cleaner.Normalize(tc.input))
		})
	}
}

func TestTextCleaner_MunicipalityAppearsOnce(t *testing.T) {
	tc := NewTextCleaner(nil, nil)
	result := tc.Normalize("北京北京市海淀区")
	assert.Equal(t, 1, strings.Count(result, "北京市"))
}

func TestTextCleaner_Idempotent(t *testing.T) {
	lookup := &fakeDistricts{known: map[string]models.DistrictInfo{
		"临县":  {Province: "山西省", City: "吕梁市", District: "临县", Adcode: "141124"},
		"密云县": {Province: "北京市", City: "北京市", District: "密云县", Adcode: "110228"},
	}}
	tc := NewTextCleaner(lookup, nil)
	ctx := context.Background()

	inputs := []string{
		"北京北京北京市海淀区区",
		"中山路中山路中山路 中山路",
		"临县城关镇",
		"密云县 鼓楼街道",
		"  浙江省  杭州市 西湖区 文三路 文三路 ",
		"张先生13812345678送货",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			once := tc.Clean(ctx, input)
			assert.Equal(t, once, tc.Clean(ctx, once))
		})
	}

	t.Run("Long_Municipality_Run", func(t *testing.T) {
		for _, input := range []string{
			strings.Repeat("北京", 600) + "海淀区",
			strings.Repeat("上海市", 300) + "浦东新区",
			strings.Repeat("天津天津市", 257),
		} {
			once := tc.Normalize(input)
			assert.Equal(t, once, tc.Normalize(once))
		}
		assert.Equal(t, "北京市海淀区", tc.Normalize(strings.Repeat("北京", 600)+"海淀区"))
	})
}

func TestTextCleaner_CountyCompletion(t *testing.T) {
	lookup := &fakeDistricts{known: map[string]models.DistrictInfo{
		"临县":  {Province: "山西省", City: "吕梁市", District: "临县", Adcode: "141124"},
		"密云县": {Province: "北京市", City: "北京市", District: "密云县", Adcode: "110228"},
	}}
	tc := NewTextCleaner(lookup, nil)
	ctx := context.Background()

	t.Run("Province_And_City", func(t *testing.T) {
		assert.Equal(t, "山西省吕梁市临县城关镇", tc.Clean(ctx, "临县城关镇"))
	})

	t.Run("Municipality_City_Omitted", func(t *testing.T) {
		assert.Equal(t, "北京市密云县", tc.Clean(ctx, "密云县"))
	})

	t.Run("Already_Qualified", func(t *testing.T) {
		lookup.calls = nil
		assert.Equal(t, "山西省吕梁市临县", tc.Clean(ctx, "山西省吕梁市临县"))
		assert.Empty(t, lookup.calls)
	})

	t.Run("Unresolved_County", func(t *testing.T) {
		assert.Equal(t, "某某县人民路", tc.Clean(ctx, "某某县人民路"))
	})
}

func TestTextCleaner_NilLookupSkipsCompletion(t *testing.T) {
	tc := NewTextCleaner(nil, nil)
	assert.Equal(t, "临县城关镇", tc.Clean(context.Background(), "临县城关镇"))
}
