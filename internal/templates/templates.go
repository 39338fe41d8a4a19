// Package templates 保存各监控事件的通知文案。
// 文案为产品面向日本用户的原文，标题存入 message 字段，正文存入 message_detail 字段。
package templates

import (
	"fmt"
	"strconv"
	"strings"
)

// 事件1：CO2 浓度
const (
	Case1NormalTitle   = "【正常】CO2（二酸化炭素） 濃度"
	Case1NormalContent = "お部屋のCO2濃度は正常です。"

	Case1WarningTitle   = "【注意】CO2（二酸化炭素） 濃度"
	Case1WarningContent = "お部屋のCO2濃度が高い状態（1,500ppm以上）です。換気をしてください。室内のCO2濃度を1,000 ppm以下に保つことが推奨されています。\n\nCO2（二酸化炭素）濃度：%s ppm"

	Case1AbnormalTitle   = "【警告】CO2（二酸化炭素） 濃度"
	Case1AbnormalContent = "お部屋のCO2濃度が非常に高い状態（3,000ppm以上）です。すぐに換気をしてください。室内のCO2濃度を1,000ppm以下に保つことが推奨されています。\n\nCO2（二酸化炭素）濃度：%s ppm"
)

// 事件2：温度
const (
	Case2NormalTitle   = "【正常】温度"
	Case2NormalContent = "お部屋の温度は正常です。"

	Case2WarningTitle   = "【注意】温度"
	Case2WarningContent = "お部屋の温度が高い状態（35℃以上）です。注意してください。\n\n温度：%s℃"

	Case2AbnormalTitle   = "【警告】温度"
	Case2AbnormalContent = "お部屋の温度が非常に高い（50℃以上）危険な状態です。お部屋を確認してください。\n\n温度：%s℃"
)

// 事件3：中暑预警
const (
	Case3NormalTitle   = "【正常】熱中症アラート"
	Case3NormalContent = "お部屋は正常です。\n\nCO2：%s ppm\n温度：%s℃\n湿度：%d%%"

	Case3WarningTitle   = "【注意】熱中症アラート"
	Case3WarningContent = "お部屋は熱中症になりやすい状態です。夏場は、室温28℃以下、湿度50～60%%を目安に、お部屋を快適な状態に保ってください。\n\nCO2：%s ppm\n温度：%s℃\n湿度：%d%%"

	Case3AbnormalTitle   = "【警告】熱中症アラート"
	Case3AbnormalContent = "お部屋は熱中症になりやすい危険な状態です。扇風機やエアコンを使用して、お部屋の温度を下げてください。夏場は、室内を温度28℃以下、湿度50～60%%に保つことが推奨されています。\n\nCO2：%s ppm\n温度：%s℃\n湿度：%d%%"
)

// 事件4：流感对策
const (
	Case4NormalTitle   = "【正常】インフルエンザ対策"
	Case4NormalContent = "お部屋の状態は正常です。\n\n温度：%s℃\n湿度：%d%%"

	Case4WarningTitle   = "【警告】インフルエンザ対策"
	Case4WarningContent = "お部屋が乾燥し、インフルエンザになりやすい状態です。冬場は、室内を温度18～25℃、湿度40～60％に保つことが推奨されています。\n\n温度：%s℃\n湿度：%d%%"
)

// 事件5：长期不在宅
const (
	Case5NormalTitle   = "【正常】長期不在"
	Case5NormalContent = "お部屋の状態は正常です。\n\nCO2：%s ppm\n温度：%s℃\n湿度：%d%%"

	Case5AbnormalTitle   = "【異常】長期不在"
	Case5AbnormalContent = "%d時間以上、お部屋のCO2濃度に変化がありません。\n\nCO2：%s ppm\n温度：%s℃\n湿度：%d%%"
)

// 事件6：长期不通
const (
	Case6NormalTitle   = "【正常】長期不通"
	Case6NormalContent = "ゲートウェイは正常に稼働しています。\n\nCO2：%s ppm\n温度：%s℃\n湿度：%d%%"

	Case6WarningTitle   = "【警告】長期不通"
	Case6WarningContent = "ゲートウェイが正しく動いていない可能性があります。電源が入っているか確認してください。"

	Case6AbnormalTitle   = "【異常】長期不通"
	Case6AbnormalContent = "ゲートウェイが24時間以上動いていません。電源が入っているか確認してください。"
)

// 事件7：疑似入侵
const (
	Case7AbnormalTitle   = "【異常】侵入者の疑い"
	Case7AbnormalContent = "不在設定されているお部屋のCO2濃度が大きく上昇しました。お部屋の状態を確認してください。"
)

// 邮件正文（{content} 为对应事件的 message_detail）
const (
	RecoverEmailTemplate = "%s　様\n\nゲートウェイの正常を検知しましたのでお知らせします。\n\n通知ID：%d\nデバイス名：%s\nデバイス IMEI：%s\n正常検知日時：%s JST\n(正常と判断した日時です)\n\n%s\n\n※このメールは送信専用アドレスからお送りしています。ご返信いただいても回答はできませんので、あらかじめご了承ください。"

	AbnormalEmailTemplate = "%s　様\n\nゲートウェイの異常を検知しましたのでお知らせします。\n\n通知ID：%d\nデバイス名：%s\nデバイス IMEI：%s\n異常検知日時：%s JST\n(異常と判断した日時です)\n\n%s\n\n※このメールは送信専用アドレスからお送りしています。ご返信いただいても回答はできませんので、あらかじめご了承ください。"
)

// EmailSubjects 邮件标题，键为 "{monitor_case}:{monitor_status}"
var EmailSubjects = map[string]string{
	"1:1": "【見守りゲートウェイ】CO2（二酸化炭素） 濃度 正常",
	"1:2": "【見守りゲートウェイ】CO2（二酸化炭素） 濃度 注意検知のお知らせ",
	"1:3": "【見守りゲートウェイ】CO2（二酸化炭素） 濃度 警告検知のお知らせ",
	"2:1": "【見守りゲートウェイ】温度 正常",
	"2:2": "【見守りゲートウェイ】温度 注意検知のお知らせ",
	"2:3": "【見守りゲートウェイ】温度 警告検知のお知らせ",
	"3:1": "【見守りゲートウェイ】熱中症アラート 正常",
	"3:2": "【見守りゲートウェイ】熱中症アラート 注意検知のお知らせ",
	"3:3": "【見守りゲートウェイ】熱中症アラート 警告検知のお知らせ",
	"5:1": "【見守りゲートウェイ】長期不在 正常",
	"5:3": "【見守りゲートウェイ】長期不在 異常検知のお知らせ",
	"6:1": "【見守りゲートウェイ】長期不通 正常",
	"6:2": "【見守りゲートウェイ】長期不通 警告検知のお知らせ",
	"6:3": "【見守りゲートウェイ】長期不通 異常検知のお知らせ",
	"7:3": "【見守りゲートウェイ】侵入者の疑い 異常検知のお知らせ",
}

// Comma 千分位格式化（CO2 浓度显示用，如 1500 -> "1,500"）
func Comma(v int) string {
	s := strconv.Itoa(v)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Temp 温度格式化（保留必要位数，如 26.5 -> "26.5"、30 -> "30"）
func Temp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Subject 邮件标题查询
func Subject(monitorCase, monitorStatus int) string {
	return EmailSubjects[fmt.Sprintf("%d:%d", monitorCase, monitorStatus)]
}
