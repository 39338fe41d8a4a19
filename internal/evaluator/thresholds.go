package evaluator

import "time"

// 监控阈值。与移动端展示的判断基准保持一致，修改前需要同步产品文档。
const (
	// 判断所需的最小样本数
	minCount = 5
	// 事件1-4的统计窗口
	trackingDuration = 30 * time.Minute

	// 事件1：CO2 浓度（ppm）
	co2Warning  = 1500
	co2Abnormal = 3000

	// 事件2：温度（℃）
	tempWarning  = 35.0
	tempAbnormal = 50.0

	// 事件3：中暑
	heatstrokeTempWarning  = 28.0
	heatstrokeTempAbnormal = 32.0
	heatstrokeHumidWarning = 60

	// 事件4：流感
	influenzaTemp  = 18.0
	influenzaHumid = 40

	// 事件5、7：CO2 变化量（ppm）
	co2DiffThreshold = 35

	// 事件5：统计记录每小时 12 条（5 分钟一条），异常判定要求覆盖率 >= 80%
	samplesPerHour       = 12
	absenceCoverageRatio = 0.8

	// 事件6：恢复在线 10 分钟内判定正常；断线 30 分钟告警、24 小时异常
	recoveryConnectionDuration          = 10 * time.Minute
	appNotificationDisconnectDuration   = 30 * time.Minute
	emailNotificationDisconnectDuration = 24 * time.Hour

	// 事件7：最后一次异常通知 4 小时后视为恢复
	intruderRecoveryDuration = 4 * time.Hour
)
