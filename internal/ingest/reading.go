package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Reading 网关上报的一条遥测数据
type Reading struct {
	IMEI       string
	CO2        int
	Temp       float64
	Humid      int
	SensorTime time.Time
}

type rawReading struct {
	IMEI       string  `json:"imei"`
	CO2        int     `json:"co2"`
	Temp       float64 `json:"temp"`
	Humid      int     `json:"humid"`
	SensorTime int64   `json:"sensor_time"`
}

// ParseReading 解析遥测消息。消息体缺少 IMEI 时从主题第二段补齐
// （主题形如 gateway/{imei}/telemetry）。
func ParseReading(topic string, payload []byte) (*Reading, error) {
	var raw rawReading
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse telemetry payload: %w", err)
	}
	if raw.IMEI == "" {
		parts := strings.Split(topic, "/")
		if len(parts) >= 2 {
			raw.IMEI = parts[1]
		}
	}
	if raw.IMEI == "" {
		return nil, fmt.Errorf("telemetry without imei on topic %s", topic)
	}
	if raw.SensorTime <= 0 {
		return nil, fmt.Errorf("telemetry without sensor_time from %s", raw.IMEI)
	}
	return &Reading{
		IMEI:       raw.IMEI,
		CO2:        raw.CO2,
		Temp:       raw.Temp,
		Humid:      raw.Humid,
		SensorTime: time.Unix(raw.SensorTime, 0).UTC(),
	}, nil
}
