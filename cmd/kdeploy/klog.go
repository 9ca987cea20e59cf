package main

import (
	"flag"
	"sync"

	klog "k8s.io/klog/v2"
)

var klogOnce sync.Once

// quietKlog limits klog noise from k8s client-go. Call this before the native
// cluster driver starts talking to the API server.
func quietKlog() {
	klogOnce.Do(func() {
		klog.InitFlags(nil)
		_ = flag.Set("stderrthreshold", "FATAL")
		_ = flag.Set("v", "0")
		_ = flag.Set("logtostderr", "false")
		_ = flag.Set("alsologtostderr", "false")
	})
}
