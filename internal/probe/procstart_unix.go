//go:build !windows

package probe

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
	"github.com/tklauser/go-sysconf"
)

// getProcStartUnix resolves a PID's start time to Unix seconds, the
// identity the supervisor records alongside the PID so a recycled PID
// is never mistaken for the monitored process. Returns 0 when the
// start time cannot be determined.
func getProcStartUnix(pid int) int64 {
	if pid <= 0 {
		return 0
	}
	if runtime.GOOS == "linux" {
		return procStartUnixLinux(pid)
	}
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return 0
	}
	ms, err := p.CreateTime()
	if err != nil || ms <= 0 {
		return 0
	}
	return ms / 1000
}

// procStartUnixLinux combines the starttime ticks from
// /proc/<pid>/stat with the boot time and the tick rate:
// start = btime + starttime/CLK_TCK.
func procStartUnixLinux(pid int) int64 {
	b, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return 0
	}
	ticks := startTicksFromStat(string(b))
	if ticks <= 0 {
		return 0
	}
	boot := bootTimeUnix()
	if boot == 0 {
		return 0
	}
	return boot + ticks/clockTicksPerSec()
}

// startTicksFromStat extracts the starttime field (field 22, clock
// ticks since boot) from a /proc/<pid>/stat line. The comm field may
// itself contain spaces and parentheses, so parsing anchors on the
// final ")" instead of splitting the whole line.
func startTicksFromStat(line string) int64 {
	end := strings.LastIndex(line, ") ")
	if end == -1 {
		return 0
	}
	fields := strings.Fields(line[end+2:])
	// starttime is the 20th field after comm.
	if len(fields) < 20 {
		return 0
	}
	ticks, err := strconv.ParseInt(fields[19], 10, 64)
	if err != nil || ticks <= 0 {
		return 0
	}
	return ticks
}

// bootTimeUnix reads the btime line from /proc/stat, or 0.
func bootTimeUnix() int64 {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0
	}
	defer func() { _ = f.Close() }()

	s := bufio.NewScanner(f)
	for s.Scan() {
		after, ok := strings.CutPrefix(s.Text(), "btime ")
		if !ok {
			continue
		}
		bt, err := strconv.ParseInt(strings.TrimSpace(after), 10, 64)
		if err != nil {
			return 0
		}
		return bt
	}
	return 0
}

func clockTicksPerSec() int64 {
	clk, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil || clk <= 0 {
		return 100
	}
	return clk
}
