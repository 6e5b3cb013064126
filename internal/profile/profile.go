// Package profile defines per-surface kiosk configuration.
//
// The four operator surfaces are the same core machine with different
// timing bounds and branch toggles. Profiles capture those differences,
// load from YAML, and are validated against an embedded CUE schema
// before a kiosk will run with them.
package profile

import (
	"fmt"
	"time"

	"github.com/gradhall/kiosk/internal/exec"
	"github.com/gradhall/kiosk/internal/flow"
)

// Known surface names.
const (
	SurfaceReturns    = "returns"
	SurfaceGownChange = "gownchange"
	SurfaceStageQueue = "stagequeue"
	SurfaceGallery    = "gallery"
)

// Surfaces lists the known surfaces in display order.
var Surfaces = []string{SurfaceReturns, SurfaceGownChange, SurfaceStageQueue, SurfaceGallery}

// Profile is one surface's configuration.
// Field tags define both the YAML file format and the CUE-validated shape.
type Profile struct {
	Name    string `yaml:"name" json:"name"`
	Surface string `yaml:"surface" json:"surface"`

	Operation string `yaml:"operation" json:"operation"`

	SettleWindowMs    int `yaml:"settle_window_ms" json:"settle_window_ms"`
	ResetDelayMs      int `yaml:"reset_delay_ms" json:"reset_delay_ms"`
	LookupTimeoutMs   int `yaml:"lookup_timeout_ms" json:"lookup_timeout_ms"`
	WatchdogOnlineMs  int `yaml:"watchdog_online_ms" json:"watchdog_online_ms"`
	WatchdogOfflineMs int `yaml:"watchdog_offline_ms" json:"watchdog_offline_ms"`
	ExitTapWindowMs   int `yaml:"exit_tap_window_ms" json:"exit_tap_window_ms"`

	PreApproved        bool `yaml:"pre_approved" json:"pre_approved"`
	CreateOnNotFound   bool `yaml:"create_on_not_found" json:"create_on_not_found"`
	RejectSameResource bool `yaml:"reject_same_resource" json:"reject_same_resource"`
	AwaitRealtime      bool `yaml:"await_realtime" json:"await_realtime"`
}

// Default returns the built-in profile for a surface.
func Default(surface string) (Profile, error) {
	p := Profile{
		Name:              surface,
		Surface:           surface,
		SettleWindowMs:    300,
		ResetDelayMs:      3000,
		LookupTimeoutMs:   4000,
		WatchdogOnlineMs:  5000,
		WatchdogOfflineMs: 1000,
		ExitTapWindowMs:   2000,
	}

	switch surface {
	case SurfaceReturns:
		p.Operation = "release"
		p.CreateOnNotFound = true
	case SurfaceGownChange:
		p.Operation = "swap"
		p.RejectSameResource = true
	case SurfaceStageQueue:
		p.Operation = "assign"
		p.PreApproved = true
	case SurfaceGallery:
		p.Operation = "assign"
		p.SettleWindowMs = 500
		p.AwaitRealtime = true
	default:
		return Profile{}, fmt.Errorf("unknown surface %q (want one of %v)", surface, Surfaces)
	}
	return p, nil
}

// OpKind maps the profile operation to the executor operation shape.
func (p Profile) OpKind() exec.OpKind {
	switch p.Operation {
	case "release":
		return exec.OpRelease
	case "swap":
		return exec.OpSwap
	default:
		return exec.OpAssign
	}
}

// FlowConfig builds the machine configuration for this profile.
// currentAssigned is only meaningful for swap surfaces.
func (p Profile) FlowConfig(event flow.EventContext, currentAssigned string) flow.Config {
	return flow.Config{
		Surface:            p.Surface,
		Event:              event,
		Op:                 p.OpKind(),
		CurrentAssigned:    currentAssigned,
		SettleWindow:       time.Duration(p.SettleWindowMs) * time.Millisecond,
		ResetDelay:         time.Duration(p.ResetDelayMs) * time.Millisecond,
		LookupTimeout:      time.Duration(p.LookupTimeoutMs) * time.Millisecond,
		WatchdogOnline:     time.Duration(p.WatchdogOnlineMs) * time.Millisecond,
		WatchdogOffline:    time.Duration(p.WatchdogOfflineMs) * time.Millisecond,
		ExitTapWindow:      time.Duration(p.ExitTapWindowMs) * time.Millisecond,
		PreApproved:        p.PreApproved,
		CreateOnNotFound:   p.CreateOnNotFound,
		RejectSameResource: p.RejectSameResource,
		AwaitRealtime:      p.AwaitRealtime,
	}
}
