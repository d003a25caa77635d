package dispatch_test

import (
	"context"
	"fmt"

	"github.com/rbaliyan/dispatch"
)

func ExampleManager() {
	m := dispatch.NewManager("example", dispatch.WithMetrics(false), dispatch.WithTracing(false))

	// The global event observes every dispatch in the system. The firing
	// event's name is prepended to the original arguments.
	m.Global().AddHandler(func(ctx context.Context, ev *dispatch.Event, args ...any) error {
		fmt.Println("global:", args)
		return nil
	})

	ping := m.GetOrCreate("ping")
	ping.AddHandler(func(ctx context.Context, ev *dispatch.Event, args ...any) error {
		fmt.Println("ping:", args)
		return nil
	})

	_ = ping.Fire(context.Background(), 1, 2, 3)
	// Output:
	// global: [ping 1 2 3]
	// ping: [1 2 3]
}

func ExampleEvent_Fire() {
	e := dispatch.New()
	_ = e.AddHandler(func(ctx context.Context, ev *dispatch.Event, args ...any) error {
		fmt.Println("first")
		return dispatch.ErrStopPropagation
	})
	_ = e.AddHandler(func(ctx context.Context, ev *dispatch.Event, args ...any) error {
		fmt.Println("second")
		return nil
	})

	_ = e.Fire(context.Background())
	// Output:
	// first
}

type chatLog struct{}

func (chatLog) onJoin(ctx context.Context, ev *dispatch.Event, args ...any) error {
	fmt.Println("joined:", args)
	return nil
}

func (chatLog) onLeave(ctx context.Context, ev *dispatch.Event, args ...any) error {
	fmt.Println("left:", args)
	return nil
}

func (c chatLog) EventHandlers() []dispatch.NamedHandler {
	return []dispatch.NamedHandler{
		{Name: "join", Handler: c.onJoin},
		{Name: "leave", Handler: c.onLeave},
	}
}

func ExampleManager_Apply() {
	m := dispatch.NewManager("chat", dispatch.WithMetrics(false), dispatch.WithTracing(false))
	if err := m.Apply(chatLog{}); err != nil {
		fmt.Println("apply failed:", err)
		return
	}
	fmt.Println(m.Names())

	join := m.GetOrCreate("join")
	_ = join.Fire(context.Background(), "alice")
	// Output:
	// [join leave]
	// joined: [alice]
}
