package evaluator

import "gateway-monitor/internal/models"

// statusCounts 样本在各档位的计数。
// 异常样本同时记入 warning，保证异常不足 minCount 时仍能降级判定为告警。
type statusCounts struct {
	normal   int
	warning  int
	abnormal int
}

// countByThreshold 按告警/异常阈值统计样本分布
func countByThreshold(values []float64, warning, abnormal float64) statusCounts {
	var c statusCounts
	for _, v := range values {
		switch {
		case v >= abnormal:
			c.abnormal++
			c.warning++
		case v >= warning:
			c.warning++
		default:
			c.normal++
		}
	}
	return c
}

// countHeatstroke 中暑判定需要温湿度组合，单独统计
func countHeatstroke(stats []*models.Statistic) statusCounts {
	var c statusCounts
	for _, s := range stats {
		switch {
		case s.Temp >= heatstrokeTempAbnormal:
			c.abnormal++
			c.warning++
		case s.Temp >= heatstrokeTempWarning && s.Humid > heatstrokeHumidWarning:
			c.warning++
		case s.Temp < heatstrokeTempWarning:
			c.normal++
		}
	}
	return c
}

// countInfluenza 低温低湿计为告警，任一指标达标计为正常
func countInfluenza(stats []*models.Statistic) statusCounts {
	var c statusCounts
	for _, s := range stats {
		if s.Temp < influenzaTemp && s.Humid < influenzaHumid {
			c.warning++
		} else {
			c.normal++
		}
	}
	return c
}

// decideByCounts 依据分布决定新状态，任一档位样本数不足 minCount 时维持原状态
func decideByCounts(c statusCounts, prev models.MonitorStatus) models.MonitorStatus {
	switch {
	case c.abnormal >= minCount:
		return models.StatusAbnormal
	case c.warning >= minCount:
		return models.StatusWarning
	case c.normal >= minCount:
		return models.StatusNormal
	default:
		return prev
	}
}
