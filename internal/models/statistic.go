package models

import (
	"fmt"
	"time"
)

// Statistic 传感器统计记录（对应 statistics 表，仅追加）
// CO2Diff 为当前 CO2 与约 20 分钟前记录的差值，窗口内无记录时为空。
type Statistic struct {
	ID         int64
	IMEI       string
	SensorTime time.Time
	CO2        int
	Temp       float64
	Humid      int
	CO2Diff    *int
}

func (s *Statistic) String() string {
	return fmt.Sprintf("Statistic<id=%d, imei=%s>", s.ID, s.IMEI)
}
