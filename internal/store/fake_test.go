package store

import (
	"testing"

	"github.com/matryer/is"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/logic"
)

func TestFakeLastWaterLog(t *testing.T) {
	is := is.New(t)
	f := NewFake()

	for i := 0; i < 5; i++ {
		f.AppendWaterLog("dev", WaterLogEntry{Epoch: int64(1700000000 + i), Reason: ReasonManual})
	}

	last2 := f.LastWaterLog("dev", 2)
	is.Equal(len(last2), 2)
	is.Equal(last2[0].Epoch, int64(1700000003))
	is.Equal(last2[1].Epoch, int64(1700000004))

	// n beyond the log length returns everything, newest last.
	all := f.LastWaterLog("dev", 50)
	is.Equal(len(all), 5)
	is.Equal(all[4].Epoch, int64(1700000004))

	is.Equal(len(f.LastWaterLog("other", 10)), 0)
}

func TestFakeResetClearsReading(t *testing.T) {
	is := is.New(t)
	f := NewFake()

	cleared := false
	err := f.WatchDevice("dev", DeviceWatcher{
		OnReading: func(r *logic.Reading) {
			if r == nil {
				cleared = true
			}
		},
	})
	is.NoErr(err)

	is.NoErr(f.RequestReset("dev"))
	is.Equal(f.ResetRequests, []string{"dev"})
	is.True(cleared)
}

func TestFakeCalibrationMarks(t *testing.T) {
	is := is.New(t)
	f := NewFake()

	is.NoErr(f.MarkCalibration("dev", MarkDry, 3400))
	is.NoErr(f.MarkCalibration("dev", MarkWet, 1300))

	cal := f.Calibration("dev")
	is.Equal(*cal.BoneDry, 3400)
	is.Equal(*cal.Submerged, 1300)
}
