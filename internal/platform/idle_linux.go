package platform

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Linux idle time comes from xprintidle, which needs an X display (XWayland
// included). Without the binary we report unsupported.
type idleProvider struct {
	binPath string
}

type unsupportedIdleProvider struct{}

func newIdleProvider() IdleProvider {
	path, err := exec.LookPath("xprintidle")
	if err != nil {
		return unsupportedIdleProvider{}
	}
	return &idleProvider{binPath: path}
}

func (p *idleProvider) IdleDuration() (time.Duration, error) {
	output, err := exec.Command(p.binPath).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	millis, err := strconv.ParseInt(strings.TrimSpace(string(output)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if millis < 0 {
		millis = 0
	}
	return time.Duration(millis) * time.Millisecond, nil
}

func (unsupportedIdleProvider) IdleDuration() (time.Duration, error) {
	return 0, ErrIdleUnsupported
}
