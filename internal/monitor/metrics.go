package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/logic"
)

var (
	readingsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plantmon_readings_received_total",
		Help: "Total reading snapshots received from the store, per device.",
	}, []string{"device"})

	// deviceStatus is 1 for the device's current classification and 0 for
	// the other five states.
	deviceStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "plantmon_device_status",
		Help: "Current device status classification (1 = active state).",
	}, []string{"device", "status"})

	lastReadingTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "plantmon_last_reading_timestamp_seconds",
		Help: "Unix timestamp of the last trusted reading per device. 0 if none.",
	}, []string{"device"})

	pumpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plantmon_pump_requests_total",
		Help: "Pump pulse requests issued, per device.",
	}, []string{"device"})

	resetRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plantmon_reset_requests_total",
		Help: "WiFi reset requests issued, per device.",
	}, []string{"device"})
)

var allStatuses = []logic.DeviceStatus{
	logic.StatusLive,
	logic.StatusDelayed,
	logic.StatusOffline,
	logic.StatusSyncing,
	logic.StatusWifiConnected,
	logic.StatusNoData,
}

func recordStatus(deviceID string, st logic.DeviceStatus) {
	for _, s := range allStatuses {
		v := 0.0
		if s == st {
			v = 1.0
		}
		deviceStatus.WithLabelValues(deviceID, string(s)).Set(v)
	}
}
