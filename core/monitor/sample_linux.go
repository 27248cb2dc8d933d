//go:build linux

package monitor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// residentTreeMB sums the resident set size of pid and all its
// descendants, in megabytes.
func residentTreeMB(pid int) (float64, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0, err
	}

	pageSize := int64(os.Getpagesize())
	parents := map[int]int{}
	rssPages := map[int]int64{}
	for _, entry := range entries {
		p, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		ppid, pages, err := readStat(p)
		if err != nil {
			// Raced with process exit; skip.
			continue
		}
		parents[p] = ppid
		rssPages[p] = pages
	}

	if _, ok := rssPages[pid]; !ok {
		return 0, fmt.Errorf("process %d not found", pid)
	}

	children := map[int][]int{}
	for p, parent := range parents {
		children[parent] = append(children[parent], p)
	}

	var totalBytes int64
	queue := []int{pid}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		totalBytes += rssPages[p] * pageSize
		queue = append(queue, children[p]...)
	}
	return float64(totalBytes) / (1024 * 1024), nil
}

// residentSelfMB reads the current process RSS from /proc/self/statm.
func residentSelfMB() (float64, error) {
	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, fmt.Errorf("malformed statm: %q", string(data))
	}
	pages, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, err
	}
	return float64(pages*int64(os.Getpagesize())) / (1024 * 1024), nil
}

// readStat extracts the ppid and resident pages from /proc/<pid>/stat.
// The comm field may contain spaces and parentheses, so fields are split
// after the last ')'.
func readStat(pid int) (ppid int, rssPages int64, err error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, 0, err
	}
	s := string(data)
	idx := strings.LastIndexByte(s, ')')
	if idx < 0 || idx+2 > len(s) {
		return 0, 0, fmt.Errorf("malformed stat for pid %d", pid)
	}
	// After ")": state ppid pgrp ... with rss at offset 21.
	fields := strings.Fields(s[idx+1:])
	if len(fields) < 22 {
		return 0, 0, fmt.Errorf("short stat for pid %d", pid)
	}
	ppid, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, err
	}
	rssPages, err = strconv.ParseInt(fields[21], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return ppid, rssPages, nil
}
