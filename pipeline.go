package stride

import "sync"

// task splits data into one contiguous chunk per worker and waits for all of them
func task[T any](workersCount int, data []T, fn func(data T)) {
	if len(data) == 0 {
		return
	}
	workersCount = max(1, min(workersCount, len(data)))

	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		start := workerID * chunkSize
		if start >= dataSize {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(data[i])
			}
		}(start, min(start+chunkSize, dataSize))
	}
	wg.Wait()
}
