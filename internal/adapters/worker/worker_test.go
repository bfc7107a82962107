package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/worker"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func TestPoolRun(t *testing.T) {
	Convey("Given a pool of two workers", t, func() {
		pool := worker.NewPool(2, worker.WithName("test-pool"))
		So(pool.Size(), ShouldEqual, 2)

		Convey("When many tasks run", func() {
			var running, peak, done int32
			tasks := make([]worker.Task, 20)
			for i := range tasks {
				tasks[i] = func(ctx context.Context) error {
					n := atomic.AddInt32(&running, 1)
					for {
						p := atomic.LoadInt32(&peak)
						if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
							break
						}
					}
					time.Sleep(time.Millisecond)
					atomic.AddInt32(&running, -1)
					atomic.AddInt32(&done, 1)
					return nil
				}
			}
			err := pool.Run(context.Background(), tasks)

			Convey("Then all complete and concurrency stays bounded", func() {
				So(err, ShouldBeNil)
				So(atomic.LoadInt32(&done), ShouldEqual, 20)
				So(atomic.LoadInt32(&peak), ShouldBeLessThanOrEqualTo, 2)
			})
		})

		Convey("When a task fails", func() {
			boom := errors.New("boom")
			tasks := []worker.Task{
				func(context.Context) error { return nil },
				func(context.Context) error { return boom },
			}
			So(errors.Is(pool.Run(context.Background(), tasks), boom), ShouldBeTrue)
		})

		Convey("When a task panics", func() {
			err := pool.Run(context.Background(), []worker.Task{func(context.Context) error { panic("bad") }})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "panicked")
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			var ran int32
			err := pool.Run(ctx, []worker.Task{func(context.Context) error { atomic.AddInt32(&ran, 1); return nil }})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(atomic.LoadInt32(&ran), ShouldEqual, 0)
		})

		Convey("When there is nothing to do", func() {
			So(pool.Run(context.Background(), nil), ShouldBeNil)
		})
	})
}

func TestMap(t *testing.T) {
	Convey("Given a pool and a slice of inputs", t, func() {
		pool := worker.NewPool(3)
		in := []int{1, 2, 3, 4, 5, 6, 7}

		Convey("When squaring them", func() {
			out, err := worker.Map(context.Background(), pool, in, func(_ context.Context, v int) (int, error) {
				return v * v, nil
			})

			Convey("Then results keep input order", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []int{1, 4, 9, 16, 25, 36, 49})
			})
		})

		Convey("When one element fails", func() {
			out, err := worker.Map(context.Background(), pool, in, func(_ context.Context, v int) (int, error) {
				if v == 4 {
					return 0, errors.New("four")
				}
				return v, nil
			})
			So(err, ShouldNotBeNil)
			So(out, ShouldBeNil)
		})
	})
}
