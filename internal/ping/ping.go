package ping

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"

	probing "github.com/go-ping/ping"
	log "github.com/sirupsen/logrus"
)

const (
	// MethodICMP sends the echo request from this process
	MethodICMP = "icmp"
	// MethodExec runs the system ping binary
	MethodExec = "exec"
)

// Pinger implements the models.LatencyProber interface
type Pinger struct {
	target     string
	timeout    time.Duration
	method     string
	privileged bool
}

// New creates a new Pinger for a single target
func New(target string, timeout time.Duration, method string, privileged bool) *Pinger {
	if method == "" {
		method = MethodICMP
	}
	return &Pinger{
		target:     target,
		timeout:    timeout,
		method:     method,
		privileged: privileged,
	}
}

// Latency sends one echo request and returns its round-trip time.
// Every failure collapses to ok == false.
func (p *Pinger) Latency(ctx context.Context) (time.Duration, bool) {
	var (
		rtt time.Duration
		err error
	)
	switch p.method {
	case MethodExec:
		rtt, err = p.execPing(ctx)
	default:
		rtt, err = p.icmpPing(ctx)
	}
	if err != nil {
		log.Debugf("Latency probe to %s failed: %v", p.target, err)
		return 0, false
	}
	if rtt < 0 {
		return 0, false
	}
	return rtt, true
}

func (p *Pinger) icmpPing(ctx context.Context) (time.Duration, error) {
	pinger, err := probing.NewPinger(p.target)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", p.target, err)
	}
	pinger.Count = 1
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(p.privileged)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()

	if err := pinger.Run(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 || len(stats.Rtts) == 0 {
		return 0, fmt.Errorf("no reply within %v", p.timeout)
	}
	return stats.Rtts[0], nil
}

func (p *Pinger) execPing(ctx context.Context) (time.Duration, error) {
	// Platform-specific ping command
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "ping", "-n", "1", "-w", strconv.Itoa(int(p.timeout.Milliseconds())), p.target)
	} else {
		seconds := int(p.timeout.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		cmd = exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(seconds), p.target)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, err
	}

	rtt, ok := parsePingOutput(string(output))
	if !ok {
		return 0, fmt.Errorf("no round-trip time in ping output")
	}
	return time.Duration(rtt * float64(time.Millisecond)), nil
}

var (
	rttPatterns = []*regexp.Regexp{
		regexp.MustCompile(`time=([0-9.]+)\s*ms`),
		regexp.MustCompile(`round-trip min/avg/max(?:/stddev)? = [0-9.]+/([0-9.]+)/`),
		regexp.MustCompile(`rtt min/avg/max/mdev = [0-9.]+/([0-9.]+)/`),
	}
	subMillisecond = regexp.MustCompile(`time<1\s*ms`)
)

// parsePingOutput parses RTT in milliseconds from ping output
func parsePingOutput(output string) (float64, bool) {
	// Linux/Mac: "time=XX.X ms"
	// Windows: "time=XXms" or "time<1ms"
	if subMillisecond.MatchString(output) {
		return 0, true
	}
	for _, re := range rttPatterns {
		matches := re.FindStringSubmatch(output)
		if len(matches) > 1 {
			if rtt, err := strconv.ParseFloat(matches[1], 64); err == nil {
				return rtt, true
			}
		}
	}

	return 0, false
}
