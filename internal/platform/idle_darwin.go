package platform

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

// macOS exposes HIDIdleTime (nanoseconds) through the IOKit registry.
type idleProvider struct{}

func newIdleProvider() IdleProvider {
	return &idleProvider{}
}

var hidIdlePattern = regexp.MustCompile(`"HIDIdleTime"\s*=\s*(\d+)`)

func (p *idleProvider) IdleDuration() (time.Duration, error) {
	output, err := exec.Command("ioreg", "-c", "IOHIDSystem", "-d", "4").Output()
	if err != nil {
		return 0, fmt.Errorf("ioreg: %w", err)
	}
	match := hidIdlePattern.FindSubmatch(output)
	if match == nil {
		return 0, ErrIdleUnsupported
	}
	nanos, err := strconv.ParseInt(string(match[1]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse HIDIdleTime: %w", err)
	}
	return time.Duration(nanos), nil
}
