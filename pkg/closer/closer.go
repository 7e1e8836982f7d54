package closer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Func — сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

type resource struct {
	name string
	fn   Func
}

// Closer закрывает зарегистрированные ресурсы в обратном порядке (LIFO).
type Closer struct {
	mu            sync.Mutex
	once          sync.Once
	resources     []resource
	forcedTimeout time.Duration
	err           error
}

// New создаёт Closer. forcedTimeout — сколько ждать ресурсы,
// которые не успели закрыться до отмены контекста Close.
func New(forcedTimeout time.Duration) *Closer {
	if forcedTimeout <= 0 {
		forcedTimeout = 2 * time.Second
	}

	return &Closer{forcedTimeout: forcedTimeout}
}

// Add регистрирует ресурс под именем, которое попадёт в текст ошибки.
func (c *Closer) Add(name string, fn Func) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resources = append(c.resources, resource{name: name, fn: fn})
}

// Close закрывает ресурсы по одному, начиная с последнего добавленного.
// Если ctx отменяется раньше, оставшиеся ресурсы закрываются параллельно
// с собственным таймаутом. Повторные вызовы возвращают результат первого.
func (c *Closer) Close(ctx context.Context) error {
	c.once.Do(func() {
		c.mu.Lock()
		resources := make([]resource, len(c.resources))
		copy(resources, c.resources)
		c.mu.Unlock()

		var errs []error
		for i := len(resources) - 1; i >= 0; i-- {
			done := make(chan error, 1)
			go func(r resource) {
				done <- r.fn(ctx)
			}(resources[i])

			select {
			case err := <-done:
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", resources[i].name, err))
				}
			case <-ctx.Done():
				// текущий ресурс ещё закрывается в своей горутине, добиваем остальные
				errs = append(errs, fmt.Errorf("%s: %w", resources[i].name, ctx.Err()))
				errs = append(errs, c.forceClose(resources[:i])...)
				c.err = errors.Join(errs...)
				return
			}
		}

		c.err = errors.Join(errs...)
	})

	return c.err
}

func (c *Closer) forceClose(resources []resource) []error {
	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, r := range resources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("[forced] %s: %w", r.name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
