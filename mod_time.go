package rtdgi

import (
	"time"
)

// FrameClock numbers rendered frames. The index seeds temporal jitter.
type FrameClock struct {
	Index uint32
	Time  time.Time
	Dt    time.Duration
}

type FrameClockModule struct {
	Start uint32
}

func (mod FrameClockModule) Install(app *App) {
	app.addResources(&FrameClock{
		Index: mod.Start,
		Time:  time.Now(),
	})
}

func (c *FrameClock) Tick() {
	now := time.Now()

	c.Dt = now.Sub(c.Time)
	c.Time = now
	c.Index++
}
