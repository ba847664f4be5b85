// Package capture provides the fixed-rate microphone capture graph.
package capture

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gen2brain/malgo"
)

// Capture format: mono float32 at the rate the analysis service expects.
const (
	SampleRate = 44100
	Channels   = 1
)

// Capture owns one miniaudio context and capture device. The zero
// device name selects the system default input.
type Capture struct {
	deviceName string
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
}

// New builds an inactive capture graph for the given device name.
func New(deviceName string) *Capture {
	return &Capture{deviceName: deviceName}
}

// Start opens the capture device and begins delivering float sample
// buffers to onFrame, one per processing quantum, on the device's audio
// thread. onFrame must not block.
func (c *Capture) Start(onFrame func([]float32)) error {
	if c.device != nil {
		return fmt.Errorf("capture already started")
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to init audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = Channels
	deviceConfig.SampleRate = SampleRate

	if c.deviceName != "" {
		infos, err := ctx.Devices(malgo.Capture)
		if err != nil {
			teardownContext(ctx)
			return fmt.Errorf("failed to list capture devices: %w", err)
		}
		found := false
		for _, info := range infos {
			if info.Name() == c.deviceName {
				deviceConfig.Capture.DeviceID = info.ID.Pointer()
				found = true
				break
			}
		}
		if !found {
			teardownContext(ctx)
			return fmt.Errorf("capture device %q not found", c.deviceName)
		}
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			onFrame(decodeF32(input, int(frameCount)))
		},
	}
	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		teardownContext(ctx)
		return fmt.Errorf("failed to open capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		teardownContext(ctx)
		return fmt.Errorf("failed to start capture: %w", err)
	}

	c.ctx = ctx
	c.device = device
	return nil
}

// Stop detaches and releases the capture device and audio context. It
// is safe to call on an inactive graph and the graph is reusable after.
func (c *Capture) Stop() {
	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	if c.ctx != nil {
		teardownContext(c.ctx)
		c.ctx = nil
	}
}

// Devices lists the names of available capture devices.
func Devices() ([]string, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}
	defer teardownContext(ctx)

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

func teardownContext(ctx *malgo.AllocatedContext) {
	if err := ctx.Uninit(); err != nil {
		// Best-effort release of the audio context.
		_ = err
	}
	ctx.Free()
}

func decodeF32(data []byte, frames int) []float32 {
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples
}
