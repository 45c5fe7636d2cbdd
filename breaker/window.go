package breaker

import "time"

type bucket struct {
	start    time.Time
	total    int64
	failures int64
}

// window 按时间桶统计调用结果，过期桶在写入和读取时淘汰
type window struct {
	size       time.Duration
	bucketSize time.Duration
	buckets    []bucket
}

func newWindow(size, bucketSize time.Duration) *window {
	return &window{size: size, bucketSize: bucketSize}
}

func (w *window) add(now time.Time, failed bool) {
	w.evict(now)
	n := len(w.buckets)
	if n == 0 || now.Sub(w.buckets[n-1].start) >= w.bucketSize {
		w.buckets = append(w.buckets, bucket{start: now.Truncate(w.bucketSize)})
		n++
	}
	b := &w.buckets[n-1]
	b.total++
	if failed {
		b.failures++
	}
}

func (w *window) counts(now time.Time) (total, failures int64) {
	w.evict(now)
	for _, b := range w.buckets {
		total += b.total
		failures += b.failures
	}
	return total, failures
}

func (w *window) evict(now time.Time) {
	cutoff := now.Add(-w.size)
	i := 0
	for i < len(w.buckets) && !w.buckets[i].start.After(cutoff) {
		i++
	}
	if i > 0 {
		w.buckets = append(w.buckets[:0], w.buckets[i:]...)
	}
}

func (w *window) reset() {
	w.buckets = w.buckets[:0]
}
