package evaluator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/templates"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestEvaluator() *Evaluator {
	return &Evaluator{
		logger: zap.NewNop(),
		now:    func() time.Time { return testNow },
	}
}

func co2Samples(values ...int) []*models.Statistic {
	samples := make([]*models.Statistic, 0, len(values))
	for _, v := range values {
		samples = append(samples, &models.Statistic{CO2: v})
	}
	return samples
}

func TestCheckCO2_Abnormal(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", CO2: 3200, CO2MonitorStatus: models.StatusNormal}

	m := e.checkCO2(d, co2Samples(3100, 3200, 3300, 3400, 3500), testNow)

	require.NotNil(t, m)
	assert.Equal(t, models.StatusAbnormal, d.CO2MonitorStatus)
	assert.Equal(t, models.CaseCO2, m.MonitorCase)
	assert.Equal(t, templates.Case1AbnormalTitle, m.Message)
	assert.Contains(t, m.MessageDetail, "3,200 ppm")
	assert.True(t, m.PushMessage)
	assert.True(t, m.SendEmail)
	assert.True(t, d.Modified())
}

func TestCheckCO2_WarningPushOnly(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", CO2: 1600, CO2MonitorStatus: models.StatusNormal}

	m := e.checkCO2(d, co2Samples(1500, 1600, 1700, 1800, 1900), testNow)

	require.NotNil(t, m)
	assert.Equal(t, models.StatusWarning, d.CO2MonitorStatus)
	assert.True(t, m.PushMessage)
	assert.False(t, m.SendEmail)
}

func TestCheckCO2_SameStatusNoMessage(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", CO2MonitorStatus: models.StatusAbnormal}

	m := e.checkCO2(d, co2Samples(3100, 3200, 3300, 3400, 3500), testNow)

	assert.Nil(t, m)
	assert.Equal(t, models.StatusAbnormal, d.CO2MonitorStatus)
	assert.False(t, d.Modified())
}

func TestCheckCO2_RecoveryFromUnknown(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", CO2MonitorStatus: models.StatusUnknown}

	m := e.checkCO2(d, co2Samples(400, 450, 500, 550, 600), testNow)

	require.NotNil(t, m)
	assert.Equal(t, models.StatusNormal, d.CO2MonitorStatus)
	assert.Equal(t, templates.Case1NormalTitle, m.Message)
	// 恢复方向不打通知标记
	assert.False(t, m.PushMessage)
	assert.False(t, m.SendEmail)
}

func TestCheckCO2_MixedCountsKeepStatus(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", CO2MonitorStatus: models.StatusWarning}

	// 各档位都不足 5 条，状态维持不变
	m := e.checkCO2(d, co2Samples(400, 450, 1600, 1700, 3100), testNow)

	assert.Nil(t, m)
	assert.Equal(t, models.StatusWarning, d.CO2MonitorStatus)
}

func TestCheckTemperature_SingleAbnormalSample(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", Temp: 52.5, TempMonitorStatus: models.StatusNormal}

	samples := []*models.Statistic{{Temp: 26}, {Temp: 52.5}}
	m := e.checkTemperature(d, samples, testNow)

	require.NotNil(t, m)
	assert.Equal(t, models.StatusAbnormal, d.TempMonitorStatus)
	assert.Equal(t, templates.Case2AbnormalTitle, m.Message)
	assert.Contains(t, m.MessageDetail, "52.5℃")
	assert.True(t, m.PushMessage)
	assert.True(t, m.SendEmail)
}

func TestCheckTemperature_FewSamplesWithoutAbnormal(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", TempMonitorStatus: models.StatusNormal}

	samples := []*models.Statistic{{Temp: 36}, {Temp: 37}}
	m := e.checkTemperature(d, samples, testNow)

	assert.Nil(t, m)
	assert.Equal(t, models.StatusNormal, d.TempMonitorStatus)
}

func TestCheckHeatstroke_Warning(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", CO2: 800, Temp: 29, Humid: 70, HeatStrokeMonitorStatus: models.StatusNormal}

	samples := make([]*models.Statistic, 0, 5)
	for i := 0; i < 5; i++ {
		samples = append(samples, &models.Statistic{Temp: 29, Humid: 70})
	}
	m := e.checkHeatstroke(d, samples, testNow)

	require.NotNil(t, m)
	assert.Equal(t, models.StatusWarning, d.HeatStrokeMonitorStatus)
	assert.Equal(t, templates.Case3WarningTitle, m.Message)
	assert.True(t, strings.Contains(m.MessageDetail, "湿度：70%"))
	assert.True(t, m.PushMessage)
	assert.False(t, m.SendEmail)
}

func TestCheckInfluenza_NeverNotifies(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", Temp: 15, Humid: 30, InfluenzaMonitorStatus: models.StatusNormal}

	samples := make([]*models.Statistic, 0, 5)
	for i := 0; i < 5; i++ {
		samples = append(samples, &models.Statistic{Temp: 15, Humid: 30})
	}
	m := e.checkInfluenza(d, samples, testNow)

	require.NotNil(t, m)
	assert.Equal(t, models.StatusWarning, d.InfluenzaMonitorStatus)
	assert.Equal(t, templates.Case4WarningTitle, m.Message)
	assert.False(t, m.PushMessage)
	assert.False(t, m.SendEmail)
}

func TestCheckInfluenza_RecoveryOnlyFromWarning(t *testing.T) {
	e := newTestEvaluator()
	normalSamples := make([]*models.Statistic, 0, 5)
	for i := 0; i < 5; i++ {
		normalSamples = append(normalSamples, &models.Statistic{Temp: 22, Humid: 50})
	}

	// 告警恢复正常会生成记录
	d := &models.Device{IMEI: "860000000000001", InfluenzaMonitorStatus: models.StatusWarning}
	m := e.checkInfluenza(d, normalSamples, testNow)
	require.NotNil(t, m)
	assert.Equal(t, templates.Case4NormalTitle, m.Message)

	// 正常维持正常不生成记录
	d2 := &models.Device{IMEI: "860000000000002", InfluenzaMonitorStatus: models.StatusNormal}
	assert.Nil(t, e.checkInfluenza(d2, normalSamples, testNow))
}
