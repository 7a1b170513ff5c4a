// Package parallel splits index ranges across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold は並列化する最小の要素数。これ以下では逐次処理する
const DefaultThreshold = 1000

// Parallelize は [0, items) を CPU コア数の区間に分け、各区間で fn を並列に実行する
// fn は区間ごとに一度だけ呼ばれ、区間は互いに重ならない
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	workers := min(runtime.GOMAXPROCS(0), items)
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunk {
		end := min(start+chunk, items)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold は items が threshold を超える場合だけ並列化する
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
