package core

import "time"

// StartTimestamp is recorded once at process init, mirroring the teacher's
// core.StartTimestamp used by the forwarder-status general dataset.
var StartTimestamp = time.Now()
