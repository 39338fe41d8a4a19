package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/repository"
	"gateway-monitor/internal/templates"
)

func TestCheckAbsenceEscalation_FullCoverage(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", CO2: 600, Temp: 24, Humid: 50, LongAbsenceMonitorStatus: models.StatusNormal}

	// 48 小时窗口理论上 576 条，80% 即 460.8 条
	m := e.checkAbsenceEscalation(d, repository.CO2DiffCount{Match: 576, Total: 576}, 48, testNow)

	require.NotNil(t, m)
	assert.Equal(t, models.StatusAbnormal, d.LongAbsenceMonitorStatus)
	assert.Equal(t, templates.Case5AbnormalTitle, m.Message)
	assert.Contains(t, m.MessageDetail, "48時間以上")
	assert.True(t, m.PushMessage)
	assert.True(t, m.SendEmail)
}

func TestCheckAbsenceEscalation_InsufficientCoverage(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", LongAbsenceMonitorStatus: models.StatusNormal}

	// 全部低于阈值但条数不足 80%，不判定异常
	m := e.checkAbsenceEscalation(d, repository.CO2DiffCount{Match: 400, Total: 400}, 48, testNow)

	assert.Nil(t, m)
	assert.Equal(t, models.StatusNormal, d.LongAbsenceMonitorStatus)
}

func TestCheckAbsenceEscalation_AnyVariationBreaksStreak(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", LongAbsenceMonitorStatus: models.StatusNormal}

	// 窗口内只要有一条超过阈值就不算持续无变化
	m := e.checkAbsenceEscalation(d, repository.CO2DiffCount{Match: 575, Total: 576}, 48, testNow)

	assert.Nil(t, m)
	assert.Equal(t, models.StatusNormal, d.LongAbsenceMonitorStatus)
}

func TestCheckAbsenceEscalation_NoStatistics(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", LongAbsenceMonitorStatus: models.StatusUnknown}

	m := e.checkAbsenceEscalation(d, repository.CO2DiffCount{}, 48, testNow)

	assert.Nil(t, m)
	assert.Equal(t, models.StatusUnknown, d.LongAbsenceMonitorStatus)
}

func TestCheckAbsenceRecovery(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", CO2: 800, Temp: 24, Humid: 50, LongAbsenceMonitorStatus: models.StatusAbnormal}

	m := e.checkAbsenceRecovery(d, testNow)

	require.NotNil(t, m)
	assert.Equal(t, models.StatusNormal, d.LongAbsenceMonitorStatus)
	assert.Equal(t, templates.Case5NormalTitle, m.Message)
	// 恢复方向不打通知标记
	assert.False(t, m.PushMessage)
	assert.False(t, m.SendEmail)
}

func TestCheckAbsenceRecovery_AlreadyNormal(t *testing.T) {
	e := newTestEvaluator()
	d := &models.Device{IMEI: "860000000000001", LongAbsenceMonitorStatus: models.StatusNormal}

	assert.Nil(t, e.checkAbsenceRecovery(d, testNow))
	assert.False(t, d.Modified())
}
