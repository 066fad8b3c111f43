package app

import (
	"errors"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/safetycam/internal/capture"
	"github.com/ayusman/safetycam/internal/detector"
	"github.com/ayusman/safetycam/internal/gesture"
	"github.com/ayusman/safetycam/internal/session"
	"github.com/ayusman/safetycam/internal/store"
)

// readRetryDelay is the pause after a failed camera read.
const readRetryDelay = 100 * time.Millisecond

// runPipeline reads frames until stopped, the video ends or the user quits.
//
// Each frame:
// 1. Detect the tracked object (a miss when none is found)
// 2. Feed the position to the session while enabled
// 3. Log the verdict and store any fired alert
// 4. Draw the trail and show the frame when a display is attached
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				log.Println("End of video stream")
				return
			}
			log.Printf("Error reading frame: %v", err)
			select {
			case <-stopCh:
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		quit := a.processFrame(frame)
		frame.Close()

		if quit {
			log.Println("Quit requested")
			return
		}
	}
}

// processFrame handles one frame and reports whether the user asked to quit.
func (a *App) processFrame(frame *gocv.Mat) bool {
	det, err := a.detector.Detect(frame)
	if err != nil {
		log.Printf("Error detecting object: %v", err)
		det = detector.Detection{Center: gesture.Miss()}
	}

	if a.IsEnabled() {
		a.observe(det.Center)
	}

	if a.display == nil && !a.config.StreamFrames {
		return false
	}

	a.smu.Lock()
	trail := a.session.Snapshot()
	capacity := a.config.Session.BufferCapacity
	a.smu.Unlock()

	capture.DrawTrail(frame, trail, capacity)
	if det.Drawable(a.config.DrawRadius) {
		capture.DrawDetection(frame, det)
	}

	if a.config.StreamFrames {
		a.keepFrame(frame)
	}
	if a.display == nil {
		return false
	}
	return a.display.Show(frame)
}

// keepFrame stores frame as the latest JPEG for streaming.
func (a *App) keepFrame(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		log.Printf("Error encoding frame: %v", err)
		return
	}
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	a.fmu.Lock()
	a.latest = jpeg
	a.fmu.Unlock()
}

// observe feeds one sample to the session and acts on the result.
func (a *App) observe(sample gesture.Sample) session.Result {
	a.smu.Lock()
	r := a.session.Process(sample)
	a.frames++
	a.smu.Unlock()

	if r.Outcome != session.Processed {
		return r
	}

	switch r.Verdict {
	case gesture.Circle:
		// The alarm was already raised unless this sample fired it.
		log.Printf("CIRCLE. Alarm = %t", r.Alert == nil)
	case gesture.NotCircle:
		log.Println("NOT CIRCLE")
	}

	if r.Alert != nil {
		a.recordAlert(r)
	}
	return r
}

// recordAlert logs a fired alert and notifies callbacks.
func (a *App) recordAlert(r session.Result) {
	log.Printf("Alarm triggered (alert %s, flips %d, ratio %.3f, variance %.1f)",
		r.Alert.ID, r.Metrics.FlipCount, r.Metrics.FlipRatio, r.Metrics.FlipVariance)

	if a.config.Store != nil {
		err := a.config.Store.Alerts().Create(&store.Alert{
			ID:           r.Alert.ID,
			Sequence:     r.Sequence,
			FiredAt:      r.Alert.FiredAt,
			Topic:        r.Alert.Alert.Topic,
			Payload:      r.Alert.Alert.Payload,
			Message:      r.Alert.Alert.Message,
			FlipCount:    r.Metrics.FlipCount,
			FlipRatio:    r.Metrics.FlipRatio,
			FlipVariance: r.Metrics.FlipVariance,
		})
		if err != nil {
			log.Printf("Failed to store alert %s: %v", r.Alert.ID, err)
		}
	}

	a.mu.RLock()
	callbacks := append([]AlertCallback(nil), a.callbacks...)
	a.mu.RUnlock()

	for _, cb := range callbacks {
		cb(r)
	}
}
