package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactExtractor_Extract(t *testing.T) {
	ce := NewContactExtractor()

	testCases := []struct {
		name          string
		input         string
		expectedName  string
		expectedPhone string
	}{
		{
			name:          "Honorific_Before_Phone",
			input:         "张先生13812345678送货",
			expectedName:  "张先生",
			expectedPhone: "13812345678",
		},
		{
			name:          "Place_Is_Not_A_Name",
			input:         "北京大学13900001111",
			expectedName:  "",
			expectedPhone: "13900001111",
		},
		{
			name:          "Name_Then_Space",
			input:         "李四 北京市朝阳区建国路88号",
			expectedName:  "李四",
			expectedPhone: "",
		},
		{
			name:          "Name_Then_Comma",
			input:         "王小明，上海市浦东新区",
			expectedName:  "王小明",
			expectedPhone: "",
		},
		{
			name:          "Label_Skipped",
			input:         "收件人：刘女士 15900001111 广州市天河区",
			expectedName:  "刘女士",
			expectedPhone: "15900001111",
		},
		{
			name:          "Uncommon_Surname",
			input:         "海淀区中关村",
			expectedName:  "",
			expectedPhone: "",
		},
		{
			name:          "Invalid_Phone_Prefix",
			input:         "12812345678",
			expectedName:  "",
			expectedPhone: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			name, phone := ce.Extract(tc.input)
			assert.Equal(t, tc.expectedName, name)
			assert.Equal(t, tc.expectedPhone, phone)
		})
	}
}
