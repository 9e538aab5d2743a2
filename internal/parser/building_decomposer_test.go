package parser

import (
	"testing"

	"github.com/address-completer/app/models"
	"github.com/address-completer/internal/normalizer"
	"github.com/stretchr/testify/assert"
)

func newTestDecomposer() *BuildingDecomposer {
	return NewBuildingDecomposer(normalizer.NewTextCleaner(nil, nil), NewSpecialPlaceDetector())
}

func TestBuildingDecomposer_DecomposeResidual(t *testing.T) {
	bd := newTestDecomposer()

	testCases := []struct {
		name     string
		text     string
		known    models.AddressComponents
		expected BuildingInfo
	}{
		{
			name:     "Building_Unit_Room",
			text:     "3号楼2单元501室",
			expected: BuildingInfo{Building: "3号楼", Unit: "2单元", Room: "501"},
		},
		{
			name:  "Street_After_Known_Region",
			text:  "北京市海淀区中关村大街3号楼2单元501室",
			known: models.AddressComponents{Province: "北京市", City: "北京市", District: "海淀区"},
			expected: BuildingInfo{
				Street: "中关村大街", Building: "3号楼", Unit: "2单元", Room: "501",
			},
		},
		{
			name:     "Subdistrict_Street_First",
			text:     "西溪街道文三路90号",
			expected: BuildingInfo{Street: "西溪街道", Building: "文三路90号"},
		},
		{
			name:     "Hyphenated_Room",
			text:     "7栋-1201",
			expected: BuildingInfo{Building: "7栋", Room: "1201"},
		},
		{
			name:     "Room_At_End",
			text:     "锦绣家园8号楼 1502",
			expected: BuildingInfo{Building: "锦绣家园8号楼", Room: "1502"},
		},
		{
			name:  "Contact_Removed",
			text:  "朝阳区建国路88号 张先生 13812345678",
			known: models.AddressComponents{District: "朝阳区", Name: "张先生", Phone: "13812345678"},
			expected: BuildingInfo{
				Street: "建国路", Building: "88号",
			},
		},
		{
			name:     "Trailing_Punctuation",
			text:     "望京SOHO塔1，",
			expected: BuildingInfo{Building: "望京SOHO塔1"},
		},
		{
			name:     "Empty_Residual",
			text:     "北京市",
			known:    models.AddressComponents{Province: "北京市", City: "北京市"},
			expected: BuildingInfo{},
		},
		{
			name:     "Institution_Not_Short_Circuited",
			text:     "海淀区清华大学东门",
			known:    models.AddressComponents{District: "海淀区"},
			expected: BuildingInfo{Building: "海淀区清华大学东门"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, bd.DecomposeResidual(tc.text, tc.known))
		})
	}
}

func TestBuildingDecomposer_DecomposeSpecialPlace(t *testing.T) {
	bd := newTestDecomposer()

	info := bd.Decompose("海淀区清华大学东门", models.AddressComponents{District: "海淀区"})
	assert.Equal(t, BuildingInfo{Building: "清华大学东门"}, info)
}

func TestBuildingDecomposer_DecomposePlainAddress(t *testing.T) {
	bd := newTestDecomposer()

	info := bd.Decompose("3号楼2单元501室", models.AddressComponents{})
	assert.Equal(t, "2单元", info.Unit)
	assert.Equal(t, "501", info.Room)
	assert.Equal(t, "3号楼", info.Building)
}
