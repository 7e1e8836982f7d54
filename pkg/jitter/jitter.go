// Package jitter — экспоненциальные задержки со случайной добавкой,
// чтобы переподключающиеся воркеры не просыпались одновременно.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultFactor — стандартный коэффициент джиттера (50%)
const DefaultFactor = 0.5

// Duration возвращает d, увеличенную на случайную долю в диапазоне [0, factor).
func Duration(d time.Duration, factor float64) time.Duration {
	if d <= 0 || factor <= 0 {
		return d
	}

	return d + time.Duration(rand.Float64()*factor*float64(d))
}

// Backoff считает задержки между попытками: base, 2*base, 4*base ... но не больше max.
// Не потокобезопасен, рассчитан на одну горутину-владельца.
type Backoff struct {
	Base    time.Duration
	Max     time.Duration
	Factor  float64
	attempt int
}

func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{Base: base, Max: max, Factor: DefaultFactor}
}

// Next возвращает задержку для очередной попытки и увеличивает счётчик.
func (b *Backoff) Next() time.Duration {
	d := b.Base
	for i := 0; i < b.attempt && d < b.Max; i++ {
		d *= 2
	}
	if d > b.Max {
		d = b.Max
	}
	b.attempt++

	return Duration(d, b.Factor)
}

// Reset сбрасывает счётчик после успешной попытки.
func (b *Backoff) Reset() {
	b.attempt = 0
}
