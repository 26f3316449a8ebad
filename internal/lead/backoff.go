package lead

import "time"

// maxRetryDelay は再試行間隔の上限。
const maxRetryDelay = 2 * time.Second

// CalculateBackoff は再試行回数に基づいて指数バックオフ遅延を計算する。
// 初回base、2倍ずつ増加、最大maxRetryDelay。
func CalculateBackoff(base time.Duration, retries int) time.Duration {
	delay := base
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	for i := 0; i < retries; i++ {
		delay *= 2
		if delay > maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
