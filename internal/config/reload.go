package config

import "reflect"

// RestartRequired lists the keys that differ between prev and next but cannot
// be applied to a running poll loop. error_limit, pacing and logging.level are
// applied in place and never appear here.
func RestartRequired(prev, next *Config) []string {
	if prev == nil || next == nil {
		return nil
	}
	var keys []string
	check := func(key string, a, b any) {
		if !reflect.DeepEqual(a, b) {
			keys = append(keys, key)
		}
	}
	check("group", prev.Group, next.Group)
	check("activity_count", prev.ActivityCount, next.ActivityCount)
	check("state_file", prev.StateFile, next.StateFile)
	check("upstream", prev.Upstream, next.Upstream)
	check("notify", prev.Notify, next.Notify)
	check("logging.format", prev.Logging.Format, next.Logging.Format)
	check("admin", prev.Admin, next.Admin)
	check("heartbeat", prev.Heartbeat, next.Heartbeat)
	return keys
}
