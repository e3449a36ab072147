// 随机数引擎，包装了golang.org/x/exp/rand，提供线程安全的随机数生成方法
package randengine

import (
	"flag"
	"sync"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：为信号灯的保持时长扰动提供可复现的随机数
// 说明：同一种子（加上种子偏移量）产生相同的序列
type Engine struct {
	*rand.Rand            // 底层随机数生成器
	mtx        sync.Mutex // 互斥锁，用于线程安全操作
}

// New 创建随机数引擎
// 参数：seed-随机数种子
// 说明：种子偏移量允许在不修改配置的情况下调整随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// Float64Safe 随机生成[0.0, 1.0)范围内的浮点数（线程安全）
func (e *Engine) Float64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64()
}
