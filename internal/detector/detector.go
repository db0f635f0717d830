// Package detector identifies a known interactive CLI agent (e.g. claude,
// aider) running underneath a terminal by walking its process tree via
// /proc, and resolves the agent process's working directory.
package detector

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Result is the outcome of a process-tree search.
type Result struct {
	Agent      string
	WorkingDir string
}

// Found reports whether a known agent was located.
func (r Result) Found() bool { return r.Agent != "" }

// Detector searches a terminal's process tree for a known agent.
type Detector struct {
	knownAgents []string
}

// New constructs a Detector for the given set of known agent process names
// (matched as a substring of /proc/<pid>/comm).
func New(knownAgents []string) *Detector {
	return &Detector{knownAgents: knownAgents}
}

// Detect walks the process tree rooted at terminalPID looking for a known
// agent. It returns a zero Result, not an error, when nothing is found or
// terminalPID is not positive: an absent agent is the common case, not a
// failure.
func (d *Detector) Detect(terminalPID int) Result {
	if terminalPID <= 0 {
		return Result{}
	}
	var result Result
	searchTree(terminalPID, d.knownAgents, &result)
	return result
}

// searchTree recurses depth-first through the process tree, matching every
// child's comm against the known-agent list before descending into its own
// children. It mirrors a flat recursive walk: there is no shell-skip
// special case, since the recursion reaches every descendant regardless
// of what sits in between.
func searchTree(pid int, knownAgents []string, result *Result) bool {
	for _, child := range children(pid) {
		comm := readComm(child)
		if comm == "" {
			continue
		}

		for _, agent := range knownAgents {
			if strings.Contains(comm, agent) {
				result.Agent = agent
				result.WorkingDir = readCwd(child)
				return true
			}
		}

		if searchTree(child, knownAgents, result) {
			return true
		}
	}
	return false
}

// readComm reads /proc/<pid>/comm, returning "" on any failure.
func readComm(pid int) string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readCwd resolves the /proc/<pid>/cwd symlink, returning "" on any failure.
func readCwd(pid int) string {
	target, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", pid))
	if err != nil {
		return ""
	}
	return target
}

// children collects every direct child PID recorded under
// /proc/<pid>/task/<tid>/children, across every thread of pid.
func children(pid int) []int {
	taskDir := fmt.Sprintf("/proc/%d/task", pid)
	entries, err := os.ReadDir(taskDir)
	if err != nil {
		return nil
	}

	var result []int
	for _, entry := range entries {
		data, err := os.ReadFile(fmt.Sprintf("%s/%s/children", taskDir, entry.Name()))
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(strings.NewReader(string(data)))
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			child, err := strconv.Atoi(scanner.Text())
			if err != nil {
				continue
			}
			result = append(result, child)
		}
	}
	return result
}
