package store

import (
	"fmt"

	"github.com/voltstream/voltstream/pkg/types"
)

// UnknownFaculty is the grouping key for devices without a faculty label
const UnknownFaculty = "unknown"

// GroupByFaculty groups snapshots into faculty -> device key -> snapshot.
// The device key prefers the display name over the device ID. The function is
// pure and deterministic: the same input list always yields the same grouping.
//
// Display names are not guaranteed unique across devices. When a later
// snapshot resolves to a key already taken within its faculty, the device ID
// is appended as a disambiguating suffix, so no snapshot is ever silently
// overwritten.
func GroupByFaculty(snapshots []types.DeviceSnapshot) map[string]map[string]types.DeviceSnapshot {
	grouped := make(map[string]map[string]types.DeviceSnapshot)

	for _, snap := range snapshots {
		faculty := UnknownFaculty
		if snap.FacultyName != nil && *snap.FacultyName != "" {
			faculty = *snap.FacultyName
		}

		key := snap.DeviceID
		if snap.DeviceName != nil && *snap.DeviceName != "" {
			key = *snap.DeviceName
		}

		bucket := grouped[faculty]
		if bucket == nil {
			bucket = make(map[string]types.DeviceSnapshot)
			grouped[faculty] = bucket
		}

		if _, taken := bucket[key]; taken {
			key = fmt.Sprintf("%s (%s)", key, snap.DeviceID)
		}
		bucket[key] = snap
	}

	return grouped
}
