package parse

import "strings"

// ZPool is one row of `zpool list -H -o name,size,alloc,free,health`.
type ZPool struct {
	Name   string
	Size   string
	Alloc  string
	Free   string
	Health string
}

func ParseZPoolList(stdout string) []ZPool {
	var out []ZPool
	for _, line := range splitNonEmptyLines(stdout) {
		f := strings.Split(line, "\t")
		if len(f) < 5 {
			f = strings.Fields(line)
		}
		if len(f) < 5 {
			continue
		}
		out = append(out, ZPool{Name: f[0], Size: f[1], Alloc: f[2], Free: f[3], Health: f[4]})
	}
	return out
}

// ZDataset is one row of `zfs list -H -o name,used,avail,refer,mountpoint`.
type ZDataset struct {
	Name       string
	Used       string
	Avail      string
	Refer      string
	Mountpoint string
}

func ParseZFSList(stdout string) []ZDataset {
	var out []ZDataset
	for _, line := range splitNonEmptyLines(stdout) {
		f := strings.Split(line, "\t")
		if len(f) < 5 {
			f = strings.Fields(line)
		}
		if len(f) < 5 {
			continue
		}
		out = append(out, ZDataset{Name: f[0], Used: f[1], Avail: f[2], Refer: f[3], Mountpoint: f[4]})
	}
	return out
}

// ZSnapshot is one row of `zfs list -H -t snapshot -o name,used,creation`.
type ZSnapshot struct {
	Name     string
	Used     string
	Creation string
}

func ParseZFSSnapshots(stdout string) []ZSnapshot {
	var out []ZSnapshot
	for _, line := range splitNonEmptyLines(stdout) {
		f := strings.Split(line, "\t")
		if len(f) < 3 {
			f = strings.SplitN(strings.Join(strings.Fields(line), " "), " ", 3)
		}
		if len(f) < 3 {
			continue
		}
		out = append(out, ZSnapshot{Name: f[0], Used: f[1], Creation: f[2]})
	}
	return out
}
