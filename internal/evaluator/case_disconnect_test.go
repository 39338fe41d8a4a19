package evaluator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/templates"
)

func deviceLastSeen(ago time.Duration, status models.MonitorStatus) *models.Device {
	t := testNow.Add(-ago)
	return &models.Device{
		IMEI:                        "860000000000001",
		SensorTime:                  &t,
		LongDisconnectMonitorStatus: status,
	}
}

func TestCheckDisconnect_WarningAfter30Minutes(t *testing.T) {
	e := newTestEvaluator()
	d := deviceLastSeen(35*time.Minute, models.StatusNormal)

	m := e.checkDisconnect(d, testNow)

	require.NotNil(t, m)
	assert.Equal(t, models.StatusWarning, d.LongDisconnectMonitorStatus)
	assert.Equal(t, templates.Case6WarningTitle, m.Message)
	assert.True(t, m.PushMessage)
	assert.False(t, m.SendEmail)
}

func TestCheckDisconnect_AbnormalAfter24Hours(t *testing.T) {
	e := newTestEvaluator()
	d := deviceLastSeen(25*time.Hour, models.StatusWarning)

	m := e.checkDisconnect(d, testNow)

	require.NotNil(t, m)
	assert.Equal(t, models.StatusAbnormal, d.LongDisconnectMonitorStatus)
	assert.Equal(t, templates.Case6AbnormalTitle, m.Message)
	assert.True(t, m.PushMessage)
	assert.True(t, m.SendEmail)
}

func TestCheckDisconnect_BelowThresholdUnchanged(t *testing.T) {
	e := newTestEvaluator()
	d := deviceLastSeen(20*time.Minute, models.StatusNormal)

	assert.Nil(t, e.checkDisconnect(d, testNow))
	assert.Equal(t, models.StatusNormal, d.LongDisconnectMonitorStatus)
	assert.False(t, d.Modified())
}

func TestCheckReconnect_RecentReportRecovers(t *testing.T) {
	e := newTestEvaluator()
	d := deviceLastSeen(5*time.Minute, models.StatusAbnormal)
	d.CO2 = 700
	d.Temp = 25
	d.Humid = 55

	m := e.checkReconnect(d, testNow)

	require.NotNil(t, m)
	assert.Equal(t, models.StatusNormal, d.LongDisconnectMonitorStatus)
	assert.Equal(t, templates.Case6NormalTitle, m.Message)
	assert.Contains(t, m.MessageDetail, "700 ppm")
	// 恢复方向不打通知标记
	assert.False(t, m.PushMessage)
	assert.False(t, m.SendEmail)
}

func TestCheckReconnect_StaleReportKeepsStatus(t *testing.T) {
	e := newTestEvaluator()
	d := deviceLastSeen(20*time.Minute, models.StatusWarning)

	assert.Nil(t, e.checkReconnect(d, testNow))
	assert.Equal(t, models.StatusWarning, d.LongDisconnectMonitorStatus)
}
