package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComma(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{700, "700"},
		{1500, "1,500"},
		{3200, "3,200"},
		{1234567, "1,234,567"},
		{-1500, "-1,500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Comma(tt.in))
	}
}

func TestTemp(t *testing.T) {
	assert.Equal(t, "26.5", Temp(26.5))
	assert.Equal(t, "30", Temp(30))
	assert.Equal(t, "52.5", Temp(52.5))
	assert.Equal(t, "-1.2", Temp(-1.2))
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "【見守りゲートウェイ】CO2（二酸化炭素） 濃度 警告検知のお知らせ", Subject(1, 3))
	assert.Equal(t, "【見守りゲートウェイ】長期不在 異常検知のお知らせ", Subject(5, 3))
	assert.Equal(t, "【見守りゲートウェイ】侵入者の疑い 異常検知のお知らせ", Subject(7, 3))

	// 未定义组合（如事件4不发送邮件）返回空
	assert.Empty(t, Subject(4, 2))
	assert.Empty(t, Subject(7, 1))
}
