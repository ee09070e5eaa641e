package engine

import (
	"time"

	"github.com/teslashibe/go-airdrums/pkg/hands"
	"github.com/teslashibe/go-airdrums/pkg/impulse"
	"github.com/teslashibe/go-airdrums/pkg/reactive"
	"github.com/teslashibe/go-airdrums/pkg/spectrum"
	"github.com/teslashibe/go-airdrums/pkg/zones"
)

// Snapshot is the full output of one tick. It shares no memory with the
// engine.
type Snapshot struct {
	Seq        uint64                          `json:"seq"`
	At         time.Time                       `json:"at"`
	DeltaMs    float64                         `json:"delta_ms"`
	Reactive   reactive.State                  `json:"reactive"`
	Spectrum   spectrum.Snapshot               `json:"spectrum"`
	Impulse    impulse.State                   `json:"impulse"`
	Glitch     map[string]reactive.GlitchState `json:"glitch"`
	Fingers    []hands.FingerSample            `json:"fingers"`
	Hits       []zones.Hit                     `json:"hits"`
	Zones      []zones.View                    `json:"zones"`
	AudioState string                          `json:"audio_state"`
	Particles  int                             `json:"particles"`
	// Bins is the byte spectrum while capture is live. The monitor sends it
	// as a binary frame after the JSON snapshot.
	Bins []uint8 `json:"-"`
}
