// Package metrics exposes the engine's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesPulled counts frames pulled from the camera stream.
	FramesPulled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkin_frames_pulled_total",
		Help: "Frames pulled from the camera stream.",
	})

	// DecodeHits counts frames that yielded a payload.
	DecodeHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkin_decode_hits_total",
		Help: "Frames that decoded to a payload.",
	})

	// Recorded counts successful check-ins by entry method.
	Recorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_recorded_total",
		Help: "Successful attendance records by method.",
	}, []string{"method"})

	// NotFound counts identifiers that matched no registrant.
	NotFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkin_not_found_total",
		Help: "Parsed identifiers that matched no registrant.",
	})

	// CameraErrors counts failed camera acquisitions.
	CameraErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkin_camera_errors_total",
		Help: "Camera acquisition failures.",
	})

	// PersistenceErrors counts failed attendance writes.
	PersistenceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkin_persistence_errors_total",
		Help: "Attendance writes rejected by the store.",
	})
)
